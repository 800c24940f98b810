package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateEnterAfterClose(t *testing.T) {
	g := NewGate()

	require.True(t, g.Enter())
	g.Exit()

	g.Close()
	assert.False(t, g.Enter())

	select {
	case <-g.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
}

func TestGateUnblocksSenderOnFullBuffer(t *testing.T) {
	g := NewGate()
	cmds := make(chan int, 1)
	cmds <- 0 // full

	sent := make(chan bool)
	go func() {
		if !g.Enter() {
			sent <- false
			return
		}
		select {
		case cmds <- 1:
			g.Exit()
			sent <- true
		case <-g.Done():
			g.Exit()
			sent <- false
		}
	}()

	g.Close()
	select {
	case ok := <-sent:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("sender stayed blocked after Close")
	}
}

// A send racing Close must either land in the buffer before the
// post-close drain or report failure; it can never be silently stranded.
func TestGateCloseObservesRacingSends(t *testing.T) {
	for i := 0; i < 2000; i++ {
		g := NewGate()
		cmds := make(chan int, 1)

		sent := make(chan bool, 1)
		go func() {
			if !g.Enter() {
				sent <- false
				return
			}
			select {
			case cmds <- 1:
				g.Exit()
				sent <- true
			case <-g.Done():
				g.Exit()
				sent <- false
			}
		}()

		g.Close()

		drained := 0
		select {
		case <-cmds:
			drained++
		default:
		}

		if <-sent {
			require.Equal(t, 1, drained, "delivered send missing from the buffer")
		} else {
			require.Equal(t, 0, drained, "failed send left a command behind")
		}
	}
}
