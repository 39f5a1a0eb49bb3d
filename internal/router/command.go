// Package router receives client requests, decodes them into typed
// commands at the boundary, and dispatches them to the queue coordinator.
package router

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MahMoudMostaAfa/azkar/internal/session"
)

// Command is the tagged union of client requests.
type Command interface {
	isCommand()
}

// PlaySingle starts playback of one item outside any queue.
type PlaySingle struct {
	Locator   string
	ItemIndex int
}

// StopSingle stops single-item playback.
type StopSingle struct{}

// StartQueue begins a "play all" traversal.
type StartQueue struct {
	Items       []session.Item
	CategoryKey string
}

// StopQueue cancels the traversal.
type StopQueue struct{}

// GetState requests the current session snapshot.
type GetState struct{}

func (PlaySingle) isCommand() {}
func (StopSingle) isCommand() {}
func (StartQueue) isCommand() {}
func (StopQueue) isCommand()  {}
func (GetState) isCommand()   {}

// ErrUnknownCommand marks a message this router does not recognize.
// Convention: the sender gets no reply and applies its own timeout.
var ErrUnknownCommand = errors.New("router: unknown command")

type wireItem struct {
	Locator       string `json:"locator"`
	Label         string `json:"label"`
	OriginalIndex int    `json:"originalIndex"`
}

type envelope struct {
	Cmd         string     `json:"cmd"`
	Locator     string     `json:"locator"`
	ItemIndex   *int       `json:"itemIndex"`
	Items       []wireItem `json:"items"`
	CategoryKey string     `json:"categoryKey"`
}

// Decode parses a wire message into its typed command.
func Decode(raw []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}

	switch env.Cmd {
	case "play":
		idx := -1
		if env.ItemIndex != nil {
			idx = *env.ItemIndex
		}
		return PlaySingle{Locator: env.Locator, ItemIndex: idx}, nil
	case "stop":
		return StopSingle{}, nil
	case "startQueue":
		items := make([]session.Item, len(env.Items))
		for i, it := range env.Items {
			items[i] = session.Item{
				Locator:       it.Locator,
				Label:         it.Label,
				OriginalIndex: it.OriginalIndex,
			}
		}
		return StartQueue{Items: items, CategoryKey: env.CategoryKey}, nil
	case "stopQueue":
		return StopQueue{}, nil
	case "getState":
		return GetState{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Cmd)
	}
}
