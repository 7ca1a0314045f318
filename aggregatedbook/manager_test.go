package aggregatedbook

import (
	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
)

// fakeNext adapts a plain func into the next interface for tests.
type fakeNextFunc func(resp protocol.Response)

func fakeNext(f func(resp protocol.Response)) next {
	return fakeNextFunc(f)
}

func (f fakeNextFunc) Publish(_ match.Symbol, resp protocol.Response) {
	f(resp)
}

func matchSymbol(v uint64) match.Symbol {
	return match.Symbol(v)
}
