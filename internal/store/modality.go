package store

import (
	"encoding/json"
	"fmt"
)

// ModalitySet is a set of group-size modalities (1..4). The platform stores
// it as a JSON array column; domain code only ever sees the typed set.
type ModalitySet uint8

// NewModalitySet builds a set from the given modalities. Values outside 1..4
// are ignored.
func NewModalitySet(modalities ...int64) ModalitySet {
	var s ModalitySet
	for _, m := range modalities {
		s = s.Add(m)
	}
	return s
}

func (s ModalitySet) Add(modality int64) ModalitySet {
	if modality < 1 || modality > 4 {
		return s
	}
	return s | 1<<(modality-1)
}

func (s ModalitySet) Has(modality int64) bool {
	if modality < 1 || modality > 4 {
		return false
	}
	return s&(1<<(modality-1)) != 0
}

// Slice returns the members in ascending order.
func (s ModalitySet) Slice() []int64 {
	var out []int64
	for m := int64(1); m <= 4; m++ {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s ModalitySet) MarshalJSON() ([]byte, error) {
	members := s.Slice()
	if members == nil {
		members = []int64{}
	}
	return json.Marshal(members)
}

func (s *ModalitySet) UnmarshalJSON(data []byte) error {
	var members []int64
	if err := json.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("decode modality set: %w", err)
	}
	*s = NewModalitySet(members...)
	return nil
}

func encodeModalitySet(s ModalitySet) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode modality set: %w", err)
	}
	return string(data), nil
}

func decodeModalitySet(raw string) (ModalitySet, error) {
	if raw == "" {
		return 0, nil
	}
	var s ModalitySet
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return 0, err
	}
	return s, nil
}
