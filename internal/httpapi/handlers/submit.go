package handlers

import (
	"net/http"

	"amsgate/internal/assembler"
	"amsgate/internal/httpkit"
)

// SubmitJobRequest is the typed submission payload. Optional fields
// are pointers: presence of a field is what triggers the matching
// task, even with an empty value (the documented default then applies).
type SubmitJobRequest struct {
	AssetID string `json:"assetId"`

	MESPreset       *string `json:"mesPreset"`
	WorkflowAssetID *string `json:"workflowAssetId"`
	WorkflowConfig  *string `json:"workflowConfig"`

	UseEncoderOutputForAnalytics bool `json:"useEncoderOutputForAnalytics"`

	Priority *int    `json:"priority"`
	JobName  *string `json:"jobName"`

	IndexV1Language       *string `json:"indexV1Language"`
	IndexV2Language       *string `json:"indexV2Language"`
	OCRLanguage           *string `json:"ocrLanguage"`
	FaceDetectionMode     *string `json:"faceDetectionMode"`
	FaceRedactionMode     *string `json:"faceRedactionMode"`
	MotionDetectionLevel  *string `json:"motionDetectionLevel"`
	SummarizationDuration *string `json:"summarizationDuration"`
	HyperlapseSpeed       *string `json:"hyperlapseSpeed"`
}

// TaskIDs is one per-task result block. Both IDs are null when the
// task was not part of the job.
type TaskIDs struct {
	AssetID *string `json:"assetId"`
	TaskID  *string `json:"taskId"`
}

// IndexerIDs additionally reports the language actually applied.
type IndexerIDs struct {
	AssetID  *string `json:"assetId"`
	TaskID   *string `json:"taskId"`
	Language *string `json:"language"`
}

type SubmitJobResponse struct {
	JobID          string     `json:"jobId"`
	OtherJobsQueue int        `json:"otherJobsQueue"`
	MES            TaskIDs    `json:"mes"`
	MEPW           TaskIDs    `json:"mepw"`
	IndexV1        IndexerIDs `json:"indexV1"`
	IndexV2        IndexerIDs `json:"indexV2"`
	OCR            TaskIDs    `json:"ocr"`
	FaceDetection  TaskIDs    `json:"faceDetection"`
	FaceRedaction  TaskIDs    `json:"faceRedaction"`
	MotionDetect   TaskIDs    `json:"motionDetection"`
	Summarization  TaskIDs    `json:"summarization"`
	Hyperlapse     TaskIDs    `json:"hyperlapse"`
}

// SubmitJob assembles and submits a media job.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	var req SubmitJobRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "invalid json body")
		return
	}

	if req.AssetID == "" {
		httpkit.WriteErr(w, 400, "Please pass asset ID in the input object (assetId)")
		return
	}

	log.Info("job submission requested", "asset_id", req.AssetID)

	result, err := h.assembler.Submit(ctx, assembler.Request{
		AssetID:                      req.AssetID,
		MESPreset:                    req.MESPreset,
		WorkflowAssetID:              req.WorkflowAssetID,
		WorkflowConfig:               req.WorkflowConfig,
		UseEncoderOutputForAnalytics: req.UseEncoderOutputForAnalytics,
		Priority:                     req.Priority,
		JobName:                      req.JobName,
		IndexV1Language:              req.IndexV1Language,
		IndexV2Language:              req.IndexV2Language,
		OCRLanguage:                  req.OCRLanguage,
		FaceDetectionMode:            req.FaceDetectionMode,
		FaceRedactionMode:            req.FaceRedactionMode,
		MotionDetectionLevel:         req.MotionDetectionLevel,
		SummarizationDuration:        req.SummarizationDuration,
		HyperlapseSpeed:              req.HyperlapseSpeed,
	})
	if err != nil {
		log.WithError(err).Warn("job submission failed")
		httpkit.WriteError(w, err)
		return
	}

	httpkit.WriteJSON(w, 200, SubmitJobResponse{
		JobID:          result.JobID,
		OtherJobsQueue: result.OtherJobsQueued,
		MES:            taskIDs(result.Slot(assembler.TaskMES)),
		MEPW:           taskIDs(result.Slot(assembler.TaskMEPW)),
		IndexV1:        indexerIDs(result.Slot(assembler.TaskIndexV1)),
		IndexV2:        indexerIDs(result.Slot(assembler.TaskIndexV2)),
		OCR:            taskIDs(result.Slot(assembler.TaskOCR)),
		FaceDetection:  taskIDs(result.Slot(assembler.TaskFaceDetection)),
		FaceRedaction:  taskIDs(result.Slot(assembler.TaskFaceRedaction)),
		MotionDetect:   taskIDs(result.Slot(assembler.TaskMotion)),
		Summarization:  taskIDs(result.Slot(assembler.TaskSummarization)),
		Hyperlapse:     taskIDs(result.Slot(assembler.TaskHyperlapse)),
	})
}

func taskIDs(slot assembler.Slot) TaskIDs {
	if slot.Absent() {
		return TaskIDs{}
	}
	assetID, taskID := slot.OutputAssetID, slot.TaskID
	return TaskIDs{AssetID: &assetID, TaskID: &taskID}
}

func indexerIDs(slot assembler.Slot) IndexerIDs {
	if slot.Absent() {
		return IndexerIDs{}
	}
	assetID, taskID, language := slot.OutputAssetID, slot.TaskID, slot.Parameter
	return IndexerIDs{AssetID: &assetID, TaskID: &taskID, Language: &language}
}
