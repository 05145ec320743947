package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samcharles93/transl8/internal/logits"
	"github.com/samcharles93/transl8/internal/model"
	"github.com/samcharles93/transl8/internal/tensor"
	"github.com/samcharles93/transl8/internal/transformer"
)

// Model is the subset of *model.TranslationModel the service drives.
type Model interface {
	Config() model.Config
	ParameterCount() int
	Forward(src, tgt tensor.Tokens, masks transformer.Masks) (tensor.Seq, error)
	GenerateSquareSubsequentMask(n int) tensor.Mat
	Generate(ctx context.Context, src tensor.Tokens, srcKeyPadding *tensor.PaddingMask, opts model.DecodeOptions) ([][]int, error)
}

// Limits bound the work a single request may ask for.
type Limits struct {
	MaxBatch  int
	MaxTokens int // per sequence, for inputs and generated output alike
}

func DefaultLimits() Limits {
	return Limits{MaxBatch: 64, MaxTokens: 512}
}

// TranslationService validates requests and runs them against the model one
// at a time.
type TranslationService struct {
	model  Model
	limits Limits
	clock  func() time.Time

	mu sync.Mutex
}

func NewTranslationService(m Model, limits Limits) *TranslationService {
	def := DefaultLimits()
	if limits.MaxBatch <= 0 {
		limits.MaxBatch = def.MaxBatch
	}
	if limits.MaxTokens <= 0 {
		limits.MaxTokens = def.MaxTokens
	}
	return &TranslationService{model: m, limits: limits, clock: time.Now}
}

func (s *TranslationService) Describe() (model.Config, int) {
	return s.model.Config(), s.model.ParameterCount()
}

func (s *TranslationService) Logits(ctx context.Context, req *LogitsRequest) (*LogitsResponse, error) {
	src, err := s.tokens("src", req.Src)
	if err != nil {
		return nil, err
	}
	tgt, err := s.tokens("tgt", req.Tgt)
	if err != nil {
		return nil, err
	}
	if src.Batch != tgt.Batch {
		return nil, newInvalidRequest(fmt.Sprintf("src has %d rows, tgt has %d", src.Batch, tgt.Batch))
	}
	srcPad, err := padding("src_padding", req.SrcPadding, req.PadID, src)
	if err != nil {
		return nil, err
	}
	tgtPad, err := padding("tgt_padding", req.TgtPadding, req.PadID, tgt)
	if err != nil {
		return nil, err
	}

	masks := transformer.Masks{
		SrcKeyPadding:    srcPad,
		TgtKeyPadding:    tgtPad,
		MemoryKeyPadding: srcPad,
	}
	if req.Causal == nil || *req.Causal {
		causal := s.model.GenerateSquareSubsequentMask(tgt.Len)
		masks.Tgt = &causal
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scores, err := s.model.Forward(src, tgt, masks)
	if err != nil {
		return nil, err
	}
	return &LogitsResponse{
		ID:      "logits_" + uuid.NewString(),
		Object:  "logits",
		Created: s.clock().Unix(),
		Shape:   scores.Shape(),
		Logits:  nested(scores),
	}, nil
}

func (s *TranslationService) Translate(ctx context.Context, req *TranslateRequest) (*TranslateResponse, error) {
	src, err := s.tokens("src", req.Src)
	if err != nil {
		return nil, err
	}
	srcPad, err := padding("src_padding", req.SrcPadding, req.PadID, src)
	if err != nil {
		return nil, err
	}
	if req.MaxLen < 0 || req.MaxLen > s.limits.MaxTokens {
		return nil, newInvalidRequest(fmt.Sprintf("max_len must be in [0, %d]", s.limits.MaxTokens))
	}
	maxLen := req.MaxLen
	if maxLen == 0 {
		maxLen = min(src.Len+10, s.limits.MaxTokens)
	}

	if req.Temperature < 0 || req.TopK < 0 || req.TopP < 0 || req.TopP > 1 || req.MinP < 0 || req.MinP > 1 || req.RepeatPenalty < 0 {
		return nil, newInvalidRequest("sampling parameters out of range")
	}
	opts := model.DecodeOptions{
		BOS:    req.BOS,
		EOS:    req.EOS,
		MaxLen: maxLen,
		Sampling: logits.SamplerConfig{
			Seed:          req.Seed,
			Temperature:   req.Temperature,
			TopK:          req.TopK,
			TopP:          req.TopP,
			MinP:          req.MinP,
			RepeatPenalty: req.RepeatPenalty,
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.model.Generate(ctx, src, srcPad, opts)
	if err != nil {
		return nil, err
	}
	return &TranslateResponse{
		ID:           "tr_" + uuid.NewString(),
		Object:       "translation",
		Created:      s.clock().Unix(),
		Translations: rows,
	}, nil
}

func (s *TranslationService) tokens(field string, rows [][]int) (tensor.Tokens, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return tensor.Tokens{}, newInvalidRequest(field + " must be a non-empty matrix")
	}
	if len(rows) > s.limits.MaxBatch {
		return tensor.Tokens{}, newInvalidRequest(fmt.Sprintf("%s: batch %d exceeds limit %d", field, len(rows), s.limits.MaxBatch))
	}
	if len(rows[0]) > s.limits.MaxTokens {
		return tensor.Tokens{}, newInvalidRequest(fmt.Sprintf("%s: length %d exceeds limit %d", field, len(rows[0]), s.limits.MaxTokens))
	}
	tk, err := tensor.TokensFromRows(rows)
	if err != nil {
		return tensor.Tokens{}, newInvalidRequest(fmt.Sprintf("%s: %v", field, err))
	}
	return tk, nil
}

func padding(field string, explicit [][]bool, padID *int, tk tensor.Tokens) (*tensor.PaddingMask, error) {
	switch {
	case explicit != nil:
		pm, err := tensor.NewPaddingMask(explicit)
		if err != nil {
			return nil, newInvalidRequest(fmt.Sprintf("%s: %v", field, err))
		}
		if err := pm.Check(tk.Batch, tk.Len); err != nil {
			return nil, newInvalidRequest(fmt.Sprintf("%s: %v", field, err))
		}
		return &pm, nil
	case padID != nil:
		pm := tensor.PaddingFromTokens(tk, *padID)
		return &pm, nil
	default:
		return nil, nil
	}
}

// nested converts a (len, batch, dim) sequence into JSON-friendly slices.
func nested(s tensor.Seq) [][][]float32 {
	out := make([][][]float32, s.Len)
	for t := range out {
		out[t] = make([][]float32, s.Batch)
		for b := range out[t] {
			out[t][b] = append([]float32(nil), s.Vec(t, b)...)
		}
	}
	return out
}
