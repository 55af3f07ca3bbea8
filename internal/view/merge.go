package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"talento/internal/models"
)

// overlayEntry accumulates every field pushed for one booking during a mount.
type overlayEntry struct {
	seq    uint64
	fields map[string]json.RawMessage
}

// partitions keeps bookings in three mutually exclusive ordered lists.
type partitions [3][]models.Booking

func (ps *partitions) find(id int64) (models.Partition, int, bool) {
	for p := range ps {
		for i, b := range ps[p] {
			if b.ID == id {
				return models.Partition(p), i, true
			}
		}
	}
	return models.PartitionPending, -1, false
}

func (ps *partitions) remove(p models.Partition, i int) {
	list := ps[p]
	ps[p] = append(list[:i:i], list[i+1:]...)
}

// reset rebuilds from fetched lists. A record listed twice keeps its first slot.
func (ps *partitions) reset(pending, accepted, declined []models.Booking) {
	*ps = partitions{}
	fetched := [3][]models.Booking{pending, accepted, declined}
	for p, list := range fetched {
		for _, b := range list {
			if _, _, dup := ps.find(b.ID); dup {
				continue
			}
			target := models.Partition(p)
			if models.IsKnownStatus(b.Status) {
				target = models.PartitionOf(b.Status)
			}
			ps[target] = append(ps[target], b)
		}
	}
}

// overlay merges fields onto the record with the same id: in place when it
// stays in its partition, otherwise removed and appended to the new one.
// Unknown ids are appended. Applying the same fields twice is a no-op.
func (ps *partitions) overlay(id int64, fields map[string]json.RawMessage, accept func(models.Booking) bool) error {
	p, i, found := ps.find(id)
	var base models.Booking
	if found {
		base = ps[p][i]
	}

	merged, err := mergeFields(base, fields)
	if err != nil {
		return err
	}
	merged.ID = id
	if !found && accept != nil && !accept(merged) {
		return nil
	}

	target := p
	if models.IsKnownStatus(merged.Status) {
		target = models.PartitionOf(merged.Status)
	}
	if found && target == p {
		ps[p][i] = merged
		return nil
	}
	if found {
		ps.remove(p, i)
	}
	ps[target] = append(ps[target], merged)
	return nil
}

func mergeFields(base models.Booking, fields map[string]json.RawMessage) (models.Booking, error) {
	raw, err := json.Marshal(base)
	if err != nil {
		return models.Booking{}, err
	}
	current := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &current); err != nil {
		return models.Booking{}, err
	}
	for k, val := range fields {
		current[k] = val
	}
	raw, err = json.Marshal(current)
	if err != nil {
		return models.Booking{}, err
	}
	var out models.Booking
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.Booking{}, fmt.Errorf("merge booking fields: %w", err)
	}
	return out, nil
}

func recordFields(b models.Booking) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	return fields, json.Unmarshal(raw, &fields)
}

func bookingID(fields map[string]json.RawMessage) (int64, error) {
	raw, ok := fields["id"]
	if !ok {
		return 0, errors.New("booking has no id")
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil && id != 0 {
		return id, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && id != 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("invalid booking id %s", string(raw))
}

func sortedOverlay(entries map[int64]*overlayEntry) []int64 {
	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return entries[ids[i]].seq < entries[ids[j]].seq })
	return ids
}
