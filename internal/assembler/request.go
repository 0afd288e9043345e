package assembler

import "github.com/vk/ocrbridge/internal/model"

// EvaluationRequest asks for an evaluation of a dataset collection.
type EvaluationRequest struct {
	Key        string   `json:"key"`
	Arguments  []string `json:"arguments"`
	Collection string   `json:"collection"`
}

// MeasureRequest asks for an evaluation run synchronously in a folder below
// the temporary root.
type MeasureRequest struct {
	Key       string   `json:"key"`
	Arguments []string `json:"arguments"`
	Folder    string   `json:"folder"`
}

// RecognitionRequest asks for recognition over a project folder.
type RecognitionRequest struct {
	Key       string                `json:"key"`
	Arguments []string              `json:"arguments"`
	Folder    string                `json:"folder"`
	Models    []model.BatchArgument `json:"models"`
}

// TrainingRequest asks for a new model to be trained into an existing model
// folder. ModelConfiguration optionally names a folder inside the model
// folder that receives the dataset manifest.
type TrainingRequest struct {
	Key                string                `json:"key"`
	User               string                `json:"user"`
	Arguments          []string              `json:"arguments"`
	ModelID            string                `json:"modelId"`
	Dataset            model.Dataset         `json:"dataset"`
	Models             []model.BatchArgument `json:"models"`
	ModelConfiguration string                `json:"modelConfiguration"`
}

// Job is a descriptor ready for submission together with its pool.
type Job struct {
	Descriptor model.JobDescriptor
	Pool       model.Pool
}

// TrainingPlan is a prepared training job. The manifest is already written;
// the record is built but not yet persisted.
type TrainingPlan struct {
	Job      Job
	ModelDir string
	Manifest string
	Record   model.EngineRecord
}

// TrainingJob is the result of a submitted training request.
type TrainingJob struct {
	Handle model.JobHandle    `json:"job"`
	Record model.EngineRecord `json:"engine"`
}
