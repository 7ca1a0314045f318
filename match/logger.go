package match

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger replaces the package-level logger used for engine lifecycle
// and invariant-violation messages.
func SetLogger(l *slog.Logger) {
	logger = l
}
