package delay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxSlots bounds how many delivered slots are remembered
const maxSlots = 200

// Delivery records one delivered notification slot
type Delivery struct {
	DeliveryID   string `json:"delivery_id"`
	Applications int    `json:"applications"`
	DeliveredAt  string `json:"delivered_at"`
}

// SlotState is the persisted set of delivered slots
type SlotState struct {
	Delivered map[string]Delivery `json:"delivered"` // slot -> delivery
}

// SlotStateManager tracks which schedule slots were already notified.
// An empty state file keeps the state in memory only.
type SlotStateManager struct {
	stateFile string
	state     *SlotState
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewSlotStateManager creates a new slot state manager
func NewSlotStateManager(stateFile string, logger *zap.Logger) *SlotStateManager {
	return &SlotStateManager{
		stateFile: stateFile,
		state:     &SlotState{Delivered: make(map[string]Delivery)},
		logger:    logger,
	}
}

// Load loads the slot state from file
func (sm *SlotStateManager) Load() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.stateFile == "" {
		return nil
	}

	data, err := os.ReadFile(sm.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Created on first save
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state SlotState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	if state.Delivered == nil {
		state.Delivered = make(map[string]Delivery)
	}

	sm.state = &state
	sm.logger.Info("Notification state loaded", zap.Int("slots", len(state.Delivered)))

	return nil
}

// IsDelivered reports whether slot was already notified
func (sm *SlotStateManager) IsDelivered(slot string) (Delivery, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	d, ok := sm.state.Delivered[slot]
	return d, ok
}

// MarkDelivered records slot as notified and persists the state
func (sm *SlotStateManager) MarkDelivered(slot string, d Delivery) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if d.DeliveredAt == "" {
		d.DeliveredAt = time.Now().Format(time.RFC3339)
	}
	sm.state.Delivered[slot] = d
	sm.prune()

	return sm.save()
}

// prune drops the oldest slots beyond maxSlots. Slot keys sort chronologically.
func (sm *SlotStateManager) prune() {
	if len(sm.state.Delivered) <= maxSlots {
		return
	}
	slots := make([]string, 0, len(sm.state.Delivered))
	for slot := range sm.state.Delivered {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots[:len(slots)-maxSlots] {
		delete(sm.state.Delivered, slot)
	}
}

func (sm *SlotStateManager) save() error {
	if sm.stateFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(sm.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(sm.stateFile), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Atomic replace
	tmp := sm.stateFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, sm.stateFile); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	sm.logger.Debug("Notification state saved", zap.Int("slots", len(sm.state.Delivered)))
	return nil
}
