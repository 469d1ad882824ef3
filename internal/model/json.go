package model

import (
	"io"
	"math"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Ordered is a JSON object that remembers key order.
type Ordered[V any] struct {
	Keys   []string
	Values map[string]V
}

// Get returns the value for key.
func (o Ordered[V]) Get(key string) (V, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// Set stores a value, appending the key on first use.
func (o *Ordered[V]) Set(key string, value V) {
	if o.Values == nil {
		o.Values = map[string]V{}
	}
	if _, ok := o.Values[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = value
}

// Len returns the number of keys.
func (o Ordered[V]) Len() int {
	return len(o.Keys)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	iter := json.BorrowIterator(data)
	defer json.ReturnIterator(iter)

	o.Keys = nil
	o.Values = map[string]V{}
	if iter.WhatIsNext() == jsoniter.NilValue {
		iter.ReadNil()
		return nil
	}
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		var v V
		it.ReadVal(&v)
		o.Set(key, v)
		return it.Error == nil
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return iter.Error
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o Ordered[V]) MarshalJSON() ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, key := range o.Keys {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(key)
		stream.WriteVal(o.Values[key])
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

type characterStatWire struct {
	Player         string   `json:"player"`
	Character      string   `json:"character"`
	Server         string   `json:"server"`
	Class          string   `json:"class"`
	AvgLevel       *float64 `json:"avg_level"`
	CompletionRate *float64 `json:"completion_rate"`
	TimedRunsRate  *float64 `json:"timed_runs_rate"`
	TimedRate      *float64 `json:"timed_rate,omitempty"`
	TotalRuns      *float64 `json:"total_runs"`
	TimedRuns      *float64 `json:"timed_runs"`
}

// UnmarshalJSON decodes null or missing numbers as NaN (floats) or 0 (counts).
func (c *CharacterStat) UnmarshalJSON(data []byte) error {
	var w characterStatWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	timedRate := w.TimedRunsRate
	if timedRate == nil {
		timedRate = w.TimedRate
	}
	*c = CharacterStat{
		Player:         w.Player,
		Character:      w.Character,
		Server:         w.Server,
		Class:          w.Class,
		AvgLevel:       floatOrNaN(w.AvgLevel),
		CompletionRate: floatOrNaN(w.CompletionRate),
		TimedRunsRate:  floatOrNaN(timedRate),
		TotalRuns:      countOrZero(w.TotalRuns),
		TimedRuns:      countOrZero(w.TimedRuns),
	}
	return nil
}

// MarshalJSON encodes NaN and infinities as null.
func (c CharacterStat) MarshalJSON() ([]byte, error) {
	totalRuns := float64(c.TotalRuns)
	timedRuns := float64(c.TimedRuns)
	return json.Marshal(characterStatWire{
		Player:         c.Player,
		Character:      c.Character,
		Server:         c.Server,
		Class:          c.Class,
		AvgLevel:       finiteOrNil(c.AvgLevel),
		CompletionRate: finiteOrNil(c.CompletionRate),
		TimedRunsRate:  finiteOrNil(c.TimedRunsRate),
		TotalRuns:      &totalRuns,
		TimedRuns:      &timedRuns,
	})
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func countOrZero(v *float64) int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return int(*v)
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
