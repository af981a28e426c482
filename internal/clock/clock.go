// Package clock abstrae time.Now para que trial expiry y el horizonte de
// expiración de held sales sean testeables con un reloj fijo.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System devuelve el reloj real (UTC).
func System() Clock { return systemClock{} }

// Fixed devuelve un reloj congelado en t. Solo para tests.
type Fixed struct{ T time.Time }

func (f *Fixed) Now() time.Time { return f.T }

// Advance mueve el reloj fijo hacia adelante.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
