// Package genome implements the Genome value type: an immutable bundle of
// prompt rubric, generation hyperparameters, and model choice that fully
// determines how a PromptSpec is executed (spec.md §3.1, §4.1).
package genome

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Genome is immutable after construction. Two genomes are equal iff all
// identity fields match; Generation is bookkeeping metadata and is not
// part of identity (spec.md §3.1).
type Genome struct {
	id string // cached canonical hash; never serialized directly, recomputed on decode

	Rubric        string  `json:"rubric" yaml:"rubric"`
	CoT           bool    `json:"cot" yaml:"cot"`
	Temp          float64 `json:"temp" yaml:"temp"`
	MaxTokens     int     `json:"max_tokens" yaml:"max_tokens"`
	RetrieverTopK int     `json:"retriever_topk" yaml:"retriever_topk"`
	UseConsensus  bool    `json:"use_consensus" yaml:"use_consensus"`
	ModelKey      string  `json:"model_key" yaml:"model_key"`
	Generation    int     `json:"generation" yaml:"generation"`
}

// Fields bundles the identity-relevant fields of a Genome (everything but
// Generation), used by New and by canonical serialization.
type Fields struct {
	Rubric        string
	CoT           bool
	Temp          float64
	MaxTokens     int
	RetrieverTopK int
	UseConsensus  bool
	ModelKey      string
}

// New constructs a Genome from its identity fields plus a generation
// number, validating the ranges in spec.md §3.1 and computing GenomeID.
func New(f Fields, generation int) (Genome, error) {
	if f.Temp < 0.0 || f.Temp > 2.0 {
		return Genome{}, fmt.Errorf("genome: temp out of range [0,2]: %v", f.Temp)
	}
	if f.MaxTokens < 1 || f.MaxTokens > 8192 {
		return Genome{}, fmt.Errorf("genome: max_tokens out of range [1,8192]: %d", f.MaxTokens)
	}
	if f.RetrieverTopK < 0 || f.RetrieverTopK > 50 {
		return Genome{}, fmt.Errorf("genome: retriever_topk out of range [0,50]: %d", f.RetrieverTopK)
	}
	if generation < 0 {
		return Genome{}, fmt.Errorf("genome: generation must be >= 0: %d", generation)
	}
	g := Genome{
		Rubric:        f.Rubric,
		CoT:           f.CoT,
		Temp:          f.Temp,
		MaxTokens:     f.MaxTokens,
		RetrieverTopK: f.RetrieverTopK,
		UseConsensus:  f.UseConsensus,
		ModelKey:      f.ModelKey,
		Generation:    generation,
	}
	g.id = computeID(f)
	return g, nil
}

// WithGeneration returns a copy of g with Generation replaced; since
// Generation is metadata, GenomeID is unchanged.
func (g Genome) WithGeneration(generation int) Genome {
	g.Generation = generation
	return g
}

// ID returns the content-addressed genome_id. Stable across processes and
// serialization round-trips because it is derived only from canonical
// serialization of the identity fields (spec.md §8: "genome_id(g) is
// stable across serialization round-trips").
func (g Genome) ID() string {
	if g.id == "" {
		g.id = computeID(g.Fields())
	}
	return g.id
}

// Fields extracts the identity-relevant fields of g.
func (g Genome) Fields() Fields {
	return Fields{
		Rubric:        g.Rubric,
		CoT:           g.CoT,
		Temp:          g.Temp,
		MaxTokens:     g.MaxTokens,
		RetrieverTopK: g.RetrieverTopK,
		UseConsensus:  g.UseConsensus,
		ModelKey:      g.ModelKey,
	}
}

// Equal reports structural equality on identity fields only, per the
// invariant in spec.md §3.1.
func (g Genome) Equal(other Genome) bool {
	return g.ID() == other.ID()
}

// computeID canonically serializes f (fixed field order, numeric
// normalization to 6 decimal places) and hashes with SHA-256, truncated to
// a 16-byte hex prefix — reproducible across processes per spec.md §4.1.
func computeID(f Fields) string {
	var b strings.Builder
	b.WriteString(f.Rubric)
	b.WriteByte(0x1f)
	b.WriteString(strconv.FormatBool(f.CoT))
	b.WriteByte(0x1f)
	b.WriteString(strconv.FormatFloat(roundTo(f.Temp, 6), 'f', 6, 64))
	b.WriteByte(0x1f)
	b.WriteString(strconv.Itoa(f.MaxTokens))
	b.WriteByte(0x1f)
	b.WriteString(strconv.Itoa(f.RetrieverTopK))
	b.WriteByte(0x1f)
	b.WriteString(strconv.FormatBool(f.UseConsensus))
	b.WriteByte(0x1f)
	b.WriteString(f.ModelKey)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:32]
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// UnmarshalJSON recomputes and overwrites GenomeID on decode so a
// round-tripped Genome always carries the canonical hash, even if the
// wire payload carried a stale or absent genome_id (spec.md §8 round-trip
// property).
func (g *Genome) UnmarshalJSON(data []byte) error {
	type alias Genome
	aux := struct {
		GenomeID string `json:"genome_id"`
		*alias
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.id = computeID(g.Fields())
	return nil
}

// MarshalJSON emits GenomeID alongside the identity + generation fields,
// matching the wire format in spec.md §6.3.
func (g Genome) MarshalJSON() ([]byte, error) {
	type alias Genome
	return json.Marshal(struct {
		GenomeID string `json:"genome_id"`
		alias
	}{GenomeID: g.ID(), alias: alias(g)})
}
