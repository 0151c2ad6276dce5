package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapSafe(t *testing.T) {
	var got []string
	safe := WrapSafe(func(eventType string, _ any) error {
		got = append(got, eventType)
		return errors.New("client gone")
	})
	safe(EventThinking, nil)
	safe(EventIdle, nil)
	assert.Equal(t, []string{EventThinking, EventIdle}, got)
}

func TestWrapSafe_Nil(t *testing.T) {
	assert.NotPanics(t, func() { WrapSafe(nil)(EventIdle, nil) })
}

func TestWrapSafe_RecoversPanic(t *testing.T) {
	safe := WrapSafe(func(string, any) error { panic("boom") })
	assert.NotPanics(t, func() { safe(EventMessage, nil) })
}
