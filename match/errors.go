package match

import "errors"

var (
	ErrInvalidParam   = errors.New("the param is invalid")
	ErrShutdown       = errors.New("engine is shutting down")
	ErrQueueFull      = errors.New("inbound queue is full")
	ErrUnknownSymbol  = errors.New("symbol is not registered")
	ErrAlreadyStarted = errors.New("engine is already running")
)
