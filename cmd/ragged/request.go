package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/fxamacker/cbor/v2"

	"github.com/23skdu/longbow-ragged/internal/ragged"
)

var errEmptyRequest = errors.New("request holds no buffers")

// Request is the CBOR document accepted on -input.
type Request struct {
	Buffers []BufferSpec `cbor:"buffers"`
}

// BufferSpec is one named ragged buffer in flattened form.
type BufferSpec struct {
	Name     string    `cbor:"name"`
	Features int       `cbor:"features"`
	Lengths  []int64   `cbor:"lengths"`
	Data     []float32 `cbor:"data"`
}

func decodeRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := cbor.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if len(req.Buffers) == 0 {
		return nil, errEmptyRequest
	}
	return &req, nil
}

func (s BufferSpec) view() (*ragged.View[float32], error) {
	if s.Features < 0 {
		return nil, fmt.Errorf("buffer %q: %w: %d features", s.Name, ragged.ErrInvalidShape, s.Features)
	}
	rows := 0
	if s.Features > 0 {
		rows = len(s.Data) / s.Features
	}
	data := s.Data
	if data == nil {
		data = []float32{}
	}
	a, err := ragged.NewArray(data, rows, s.Features)
	if err != nil {
		return nil, fmt.Errorf("buffer %q: %w", s.Name, err)
	}
	v, err := ragged.ViewFromFlattened(a, s.Lengths)
	if err != nil {
		return nil, fmt.Errorf("buffer %q: %w", s.Name, err)
	}
	return v, nil
}

// generate builds n sequences of up to maxLen random items each.
func generate(n, features, maxLen int, seed int64) *ragged.View[float32] {
	rng := rand.New(rand.NewSource(seed))
	lengths := make([]int64, n)
	items := 0
	for i := range lengths {
		lengths[i] = int64(rng.Intn(maxLen + 1))
		items += int(lengths[i])
	}
	data := make([]float32, items*features)
	for i := range data {
		data[i] = rng.Float32()
	}
	v, err := ragged.ViewFromFlattened(ragged.MustArray(data, items, features), lengths)
	if err != nil {
		panic(err)
	}
	return v
}
