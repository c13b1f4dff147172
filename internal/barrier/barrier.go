// Package barrier implementa la disciplina de sincronizacion del store
// compartido: una escritura solo se considera confiable cuando su
// visibilidad se verifico por lectura. Los pasos de bootstrap tratan el
// timeout como fallo duro; la barrera final del orquestador lo trata
// como blando.
package barrier

import (
	"context"
	"errors"
	"time"
)

// ErrDurabilityTimeout indica que la barrera expiro antes de confirmar
// todas las escrituras pendientes.
var ErrDurabilityTimeout = errors.New("durability barrier timeout")

// Kind clasifica el objeto cuya visibilidad se verifica.
type Kind string

const (
	KindPrincipal    Kind = "principal"
	KindGroup        Kind = "group"
	KindMembership   Kind = "membership"
	KindLog          Kind = "log"
	KindConversation Kind = "conversation"
	KindMessage      Kind = "message"
	KindIndexEntry   Kind = "index_entry"
)

// Ref identifica una escritura pendiente de confirmar. Scope desambigua
// pares compuestos: el grupo de una membresia, el principal de una
// entrada de indice.
type Ref struct {
	Kind  Kind
	ID    string
	Scope string
}

// Prober verifica por lectura si un objeto ya es visible en el store.
type Prober interface {
	Visible(ctx context.Context, ref Ref) (bool, error)
}

// Waiter hace polling sobre un Prober hasta confirmar o expirar.
type Waiter struct {
	prober   Prober
	interval time.Duration
}

func NewWaiter(prober Prober, interval time.Duration) *Waiter {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Waiter{prober: prober, interval: interval}
}

// Confirm bloquea hasta que todos los refs sean visibles o expire el
// timeout. Devuelve ErrDurabilityTimeout al expirar; errores del prober
// se propagan tal cual.
func (w *Waiter) Confirm(ctx context.Context, timeout time.Duration, refs ...Ref) error {
	if len(refs) == 0 {
		return nil
	}
	deadline := time.Now().Add(timeout)
	pending := make([]Ref, len(refs))
	copy(pending, refs)

	for {
		remaining := pending[:0]
		for _, ref := range pending {
			ok, err := w.prober.Visible(ctx, ref)
			if err != nil {
				return err
			}
			if !ok {
				remaining = append(remaining, ref)
			}
		}
		pending = remaining
		if len(pending) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrDurabilityTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.interval):
		}
	}
}

// Tracker acumula refs escritos durante una operacion para confirmarlos
// en bloque al final. No es seguro para uso concurrente; cada llamada
// del orquestador usa el suyo.
type Tracker struct {
	refs []Ref
}

func (t *Tracker) Track(ref Ref) {
	t.refs = append(t.refs, ref)
}

func (t *Tracker) Refs() []Ref {
	return t.refs
}
