package yamlconf

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/model"
)

const recognitionYAML = `
description: Recognizes text lines with one or more models.
categories: [recognition]
steps: [predict]
model:
  folder:
    type: string
  models:
    type: list
aliases:
  - token: --gpu
    values: [--device, cuda]
  - token: --gpu
    values: [--device, cpu]
`

func TestDecoder_Decode(t *testing.T) {
	raw, err := NewDecoder().Decode(context.Background(), "recognition.yaml", []byte(recognitionYAML))
	require.NoError(t, err)

	assert.Equal(t, "Recognizes text lines with one or more models.", raw.Description)
	assert.Equal(t, []string{"predict"}, raw.Steps)
	assert.JSONEq(t, `{"folder":{"type":"string"},"models":{"type":"list"}}`, string(raw.Model))
	require.Len(t, raw.Aliases, 2)
	assert.Equal(t, []string{"--device", "cuda"}, raw.Aliases[0].Values)
	assert.Nil(t, raw.Framework)
}

func TestDecoder_Framework(t *testing.T) {
	src := `
description: Train
framework:
  version: "2.2"
  reserved:
    - role: images
      flag: --train.images
    - role: constant
      flag: --train
      value: PlainFileDataParams
`
	raw, err := NewDecoder().Decode(context.Background(), "training.yml", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, raw.Framework)
	assert.Equal(t, "2.2", raw.Framework.Version)
	assert.Equal(t, config.ReservedConstant, raw.Framework.Reserved[1].Role)
	assert.Equal(t, "PlainFileDataParams", raw.Framework.Reserved[1].Value)
}

func TestDecoder_Errors(t *testing.T) {
	_, err := NewDecoder().Decode(context.Background(), "evaluation.yaml", []byte(""))
	assert.ErrorContains(t, err, "is empty")

	_, err = NewDecoder().Decode(context.Background(), "evaluation.yaml", []byte("description: x\nunknown: 1\n"))
	assert.ErrorContains(t, err, "failed to decode descriptor")

	_, err = NewDecoder().Decode(context.Background(), "evaluation.yaml", []byte("description: [unterminated\n"))
	assert.Error(t, err)
}

func TestDecoder_ThroughStore(t *testing.T) {
	src := fstest.MapFS{"recognition.yml": {Data: []byte(recognitionYAML)}}

	store := config.NewStore(context.Background(), []fs.FS{src}, NewDecoder())

	desc, err := store.Descriptor(model.JobKindRecognition)
	require.NoError(t, err)
	assert.Equal(t, []string{"--device", "cuda"}, desc.Aliases["--gpu"])
}
