package component

import "errors"

// ErrAnswerWithoutCall is returned by Answer when nothing called the
// component and no listener is installed. This is a programming error,
// not a recoverable condition; it must reach the host request layer.
var ErrAnswerWithoutCall = errors.New("answer without pending call")

// ErrNotFound is returned by Init when the payload cannot consume the
// remaining url. An invalid or stale url is a normal outcome; the host
// layer renders a fallback for it.
var ErrNotFound = errors.New("url not consumed by any component")
