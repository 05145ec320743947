package api

import "github.com/samcharles93/transl8/internal/model"

// LogitsRequest asks for a full teacher-forced forward pass. Token matrices
// are batch-major: one row per sequence. Padding is taken from the explicit
// masks when given (true marks a padded position), otherwise from PadID.
type LogitsRequest struct {
	Src        [][]int  `json:"src"`
	Tgt        [][]int  `json:"tgt"`
	SrcPadding [][]bool `json:"src_padding,omitempty"`
	TgtPadding [][]bool `json:"tgt_padding,omitempty"`
	PadID      *int     `json:"pad_id,omitempty"`
	Causal     *bool    `json:"causal,omitempty"`
}

// LogitsResponse carries logits in (tgt_len, batch, tgt_vocab) order.
type LogitsResponse struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Shape   []int         `json:"shape"`
	Logits  [][][]float32 `json:"logits"`
}

type TranslateRequest struct {
	Src        [][]int  `json:"src"`
	SrcPadding [][]bool `json:"src_padding,omitempty"`
	PadID      *int     `json:"pad_id,omitempty"`
	BOS        int      `json:"bos"`
	EOS        int      `json:"eos"`
	MaxLen     int      `json:"max_len,omitempty"`

	// Sampling; a zero temperature decodes greedily.
	Temperature   float32 `json:"temperature,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	TopP          float32 `json:"top_p,omitempty"`
	MinP          float32 `json:"min_p,omitempty"`
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
}

type TranslateResponse struct {
	ID           string  `json:"id"`
	Object       string  `json:"object"`
	Created      int64   `json:"created"`
	Translations [][]int `json:"translations"`
}

type ModelResponse struct {
	Object     string       `json:"object"`
	Config     model.Config `json:"config"`
	Parameters int          `json:"parameters"`
	Version    string       `json:"version"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}
