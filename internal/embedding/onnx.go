//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/kaimono/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a local text encoder with ONNX Runtime. It requires CGO and the
// onnxruntime shared library. The model has no image tower, so EmbedImage always fails
// with ErrUnsupportedInput.
type ONNXEmbedder struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer

	// Run reads the inputs and writes the output in place; see EmbedText.
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

type destroyer interface{ Destroy() error }

func destroyAll(ds []destroyer) {
	for i := len(ds) - 1; i >= 0; i-- {
		_ = ds[i].Destroy()
	}
}

// NewONNXEmbedder loads the text encoder at modelPath with the given output dimensions
// and token window. InitializeEnvironment is called if not already done.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	e := &ONNXEmbedder{dimensions: dimensions, maxTokens: maxTokens, tokenizer: &SimpleTokenizer{}}
	var created []destroyer
	inputShape := ort.NewShape(1, int64(maxTokens))
	ids, mask, types := e.tokenizer.Tokenize("", maxTokens)

	for _, in := range []struct {
		name string
		data []int64
		dst  **ort.Tensor[int64]
	}{
		{"input_ids", ids, &e.inputIDs},
		{"attention_mask", mask, &e.attentionMask},
		{"token_type_ids", types, &e.tokenTypeIDs},
	} {
		t, err := ort.NewTensor(inputShape, in.data)
		if err != nil {
			destroyAll(created)
			return nil, fmt.Errorf("failed to create %s tensor: %w", in.name, err)
		}
		*in.dst = t
		created = append(created, t)
	}

	output, err := ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
	if err != nil {
		destroyAll(created)
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	e.output = output
	created = append(created, output)

	e.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{e.inputIDs, e.attentionMask, e.tokenTypeIDs},
		[]ort.ArbitraryTensor{e.output},
		nil,
	)
	if err != nil {
		destroyAll(created)
		return nil, fmt.Errorf("failed to create ONNX session for %s: %w", modelPath, err)
	}
	return e, nil
}

// EmbedText encodes product or query text and returns a unit-length embedding.
func (e *ONNXEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(SplitWords(text)) == 0 {
		return nil, fmt.Errorf("empty text: %w", ErrNoInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("onnx embedder is closed")
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.inputIDs.GetData(), ids)
	copy(e.attentionMask.GetData(), mask)
	copy(e.tokenTypeIDs.GetData(), types)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	vec := make([]float32, e.dimensions)
	copy(vec, e.output.GetData())
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedImage is not supported by the text encoder.
func (e *ONNXEmbedder) EmbedImage(context.Context, []byte) ([]float32, error) {
	return nil, ErrUnsupportedInput
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and its tensors. It is safe to call more than once.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	destroyAll([]destroyer{e.inputIDs, e.attentionMask, e.tokenTypeIDs, e.output})
	e.inputIDs, e.attentionMask, e.tokenTypeIDs, e.output = nil, nil, nil, nil
	return err
}
