package position

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"CycleTrader/internal/model"
)

// State is the persisted session: capital, the open position, closed trades and the last
// published signal.
type State struct {
	Symbol     string          `json:"symbol"`
	Capital    float64         `json:"capital"`
	Open       *model.Position `json:"open_position,omitempty"`
	Trades     []model.Trade   `json:"trades"`
	LastSignal *model.Signal   `json:"last_signal,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// LoadState reads the session state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

// SaveState writes the session state to a JSON file, creating its directory.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
