package hcl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocrbridge/internal/config"
)

const trainingHCL = `
description = "Trains a recognition model."
categories  = ["training"]
steps       = ["assemble", "train"]

model = {
  dataset = { type = "items", required = true }
}

alias "--fast" {
  values = ["--trainer.epochs", 1]
}

alias "--silent" {
  values = []
}

framework {
  version = "2.2.2"

  reserved "images" {
    flag = "--train.images"
  }
  reserved "output" {
    flag = "--trainer.output_dir"
  }
  reserved "constant" {
    flag  = "--train"
    value = "PlainFileDataParams"
  }
}
`

func TestDecoder_DecodeHCL(t *testing.T) {
	raw, err := NewDecoder().Decode(context.Background(), "training.hcl", []byte(trainingHCL))
	require.NoError(t, err)

	assert.Equal(t, "Trains a recognition model.", raw.Description)
	assert.Equal(t, []string{"assemble", "train"}, raw.Steps)
	assert.JSONEq(t, `{"dataset":{"type":"items","required":true}}`, string(raw.Model))

	require.Len(t, raw.Aliases, 2)
	assert.Equal(t, config.AliasEntry{Token: "--fast", Values: []string{"--trainer.epochs", "1"}}, raw.Aliases[0])
	assert.Empty(t, raw.Aliases[1].Values)

	require.NotNil(t, raw.Framework)
	assert.Equal(t, "2.2.2", raw.Framework.Version)
	assert.Equal(t, []config.ReservedArgument{
		{Role: config.ReservedImages, Flag: "--train.images"},
		{Role: config.ReservedOutput, Flag: "--trainer.output_dir"},
		{Role: config.ReservedConstant, Flag: "--train", Value: "PlainFileDataParams"},
	}, raw.Framework.Reserved)
}

func TestDecoder_KeepsDuplicateAliasesInOrder(t *testing.T) {
	src := `
description = "x"
alias "-m" { values = ["--model", "a"] }
alias "-m" { values = ["--model", "b"] }
`
	raw, err := NewDecoder().Decode(context.Background(), "evaluation.hcl", []byte(src))
	require.NoError(t, err)
	require.Len(t, raw.Aliases, 2)
	assert.Equal(t, "a", raw.Aliases[0].Values[1])
	assert.Equal(t, "b", raw.Aliases[1].Values[1])
	assert.Nil(t, raw.Model)
	assert.Nil(t, raw.Framework)
}

func TestDecoder_DecodeJSON(t *testing.T) {
	src := `{
  "description": "Recognizes text lines.",
  "model": {"folder": {"type": "string"}},
  "alias": {
    "--gpu": {"values": ["--device", "cuda"]}
  }
}`
	raw, err := NewDecoder().Decode(context.Background(), "recognition.json", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Recognizes text lines.", raw.Description)
	assert.JSONEq(t, `{"folder":{"type":"string"}}`, string(raw.Model))
	require.Len(t, raw.Aliases, 1)
	assert.Equal(t, "--gpu", raw.Aliases[0].Token)
}

func TestDecoder_Errors(t *testing.T) {
	withEnv(t, nil)
	_, err := NewDecoder().Decode(context.Background(), "evaluation.hcl", []byte(`description = `))
	assert.ErrorContains(t, err, "failed to parse")

	_, err = NewDecoder().Decode(context.Background(), "evaluation.hcl", []byte(`categories = ["a"]`))
	assert.ErrorContains(t, err, "failed to decode descriptor")

	_, err = NewDecoder().Decode(context.Background(), "evaluation.hcl", []byte(`
description = "x"
alias "-m" { values = "--model" }
`))
	assert.ErrorContains(t, err, `alias "-m"`)

	_, err = NewDecoder().Decode(context.Background(), "evaluation.hcl", []byte(`
description = "x"
model = env("OCRBRIDGE_UNSET_FOR_TEST_ONLY")
`))
	assert.ErrorContains(t, err, "evaluating model")
}

func TestDecoder_Extensions(t *testing.T) {
	assert.Equal(t, []string{".hcl", ".json"}, NewDecoder().Extensions())
}
