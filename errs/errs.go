package errs

import "fmt"

var (
	ErrRoomNotFound     = fmt.Errorf("room not found")
	ErrUnknownCommand   = fmt.Errorf("unknown protocol command")
	ErrUnknownQueryKind = fmt.Errorf("unknown queryresponse kind")
	ErrNotConnected     = fmt.Errorf("transport not connected")
	ErrSettingsVersion  = fmt.Errorf("settings blob version mismatch")
	ErrNoChallenge      = fmt.Errorf("no challenge string received")
	ErrLoginFailed      = fmt.Errorf("login rejected by loginserver")
	ErrNoBoxMessage     = fmt.Errorf("no boxed message with that name")
	ErrDelegateLoad     = fmt.Errorf("battle delegate failed to load")
)
