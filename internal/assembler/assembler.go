// Package assembler builds and submits media jobs. Tasks are appended
// in a fixed order, each claiming the next slot index; after submission
// the slots are resolved to the identifiers the service assigned.
package assembler

import (
	"context"
	"strings"

	"amsgate/internal/assembler/presets"
	"amsgate/internal/media"
	"amsgate/internal/pkg/errors"
	"amsgate/internal/pkg/logger"
)

const (
	processorMES  = "Media Encoder Standard"
	processorMEPW = "Media Encoder Premium Workflow"

	// DefaultJobName is used when the request names no job.
	DefaultJobName = "Azure Functions Job"
	// DefaultPriority is used when the request sets no priority.
	DefaultPriority = 10
)

// analyticsDef describes one optional analytics task: the processor
// that runs it, the bundled preset, and the default parameter the
// preset carries (substituted when the caller provides a value).
type analyticsDef struct {
	name         TaskName
	processor    string
	presetFile   string
	defaultValue string
	// sourceOnly tasks always consume the original asset, never the
	// encoder output.
	sourceOnly bool
}

var analyticsDefs = []analyticsDef{
	{name: TaskIndexV1, processor: "Azure Media Indexer", presetFile: "IndexerV1.xml", defaultValue: "English"},
	{name: TaskIndexV2, processor: "Azure Media Indexer 2 Preview", presetFile: "IndexerV2.json", defaultValue: "EnUs"},
	{name: TaskOCR, processor: "Azure Media OCR", presetFile: "OCR.json", defaultValue: "AutoDetect"},
	{name: TaskFaceDetection, processor: "Azure Media Face Detector", presetFile: "FaceDetection.json", defaultValue: "PerFaceEmotion"},
	{name: TaskFaceRedaction, processor: "Azure Media Redactor", presetFile: "FaceRedaction.json", defaultValue: "combined"},
	{name: TaskMotion, processor: "Azure Media Motion Detector", presetFile: "MotionDetection.json", defaultValue: "medium"},
	{name: TaskSummarization, processor: "Azure Media Video Thumbnails", presetFile: "Summarization.json", defaultValue: "0.0"},
	{name: TaskHyperlapse, processor: "Azure Media Hyperlapse", presetFile: "Hyperlapse.json", defaultValue: "8", sourceOnly: true},
}

// Request is the typed submission input. Nil optional fields mean the
// corresponding task is not created at all.
type Request struct {
	AssetID string

	MESPreset       *string
	WorkflowAssetID *string
	WorkflowConfig  *string

	UseEncoderOutputForAnalytics bool

	Priority *int
	JobName  *string

	IndexV1Language       *string
	IndexV2Language       *string
	OCRLanguage           *string
	FaceDetectionMode     *string
	FaceRedactionMode     *string
	MotionDetectionLevel  *string
	SummarizationDuration *string
	HyperlapseSpeed       *string
}

func (r Request) analyticsValue(name TaskName) *string {
	switch name {
	case TaskIndexV1:
		return r.IndexV1Language
	case TaskIndexV2:
		return r.IndexV2Language
	case TaskOCR:
		return r.OCRLanguage
	case TaskFaceDetection:
		return r.FaceDetectionMode
	case TaskFaceRedaction:
		return r.FaceRedactionMode
	case TaskMotion:
		return r.MotionDetectionLevel
	case TaskSummarization:
		return r.SummarizationDuration
	case TaskHyperlapse:
		return r.HyperlapseSpeed
	default:
		return nil
	}
}

// Result reports the submitted job and every slot, present or absent,
// in TaskOrder.
type Result struct {
	JobID           string
	OtherJobsQueued int
	Slots           []Slot
}

// Slot returns the slot for the given logical task name.
func (r *Result) Slot(name TaskName) Slot {
	for _, s := range r.Slots {
		if s.Name == name {
			return s
		}
	}
	return Slot{Name: name, Index: AbsentSlot}
}

// Assembler builds and submits jobs against a media.Service.
type Assembler struct {
	svc     media.Service
	presets *presets.Store
	log     *logger.Logger
}

// New creates an Assembler.
func New(svc media.Service, store *presets.Store, log *logger.Logger) *Assembler {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Assembler{
		svc:     svc,
		presets: store,
		log:     log.WithComponent("assembler"),
	}
}

// Submit assembles the job described by req, submits it, and resolves
// every slot to the identifiers the service assigned. The job and its
// tasks exist only service-side; nothing is persisted locally.
func (a *Assembler) Submit(ctx context.Context, req Request) (*Result, error) {
	log := a.log.FromContext(ctx)

	if strings.TrimSpace(req.AssetID) == "" {
		return nil, errors.Validation("Please pass asset ID in the input object (assetId)")
	}

	asset, err := a.svc.GetAsset(ctx, req.AssetID)
	if err != nil {
		if media.IsNotFound(err) {
			return nil, errors.WrapWithCode(err, errors.CodeNotFound, "job.submit", "Asset not found")
		}
		return nil, errors.Wrap(err, "job.submit", "asset lookup failed")
	}

	spec := media.JobSpec{
		Name:     DefaultJobName,
		Priority: DefaultPriority,
	}
	if req.JobName != nil && *req.JobName != "" {
		spec.Name = *req.JobName
	}
	if req.Priority != nil {
		spec.Priority = *req.Priority
	}

	table := newSlotTable()

	// encoderSlot tracks the task whose output feeds analytics when
	// the encoder-output flag is set. When both encoders are present
	// the premium task wins, matching the original behavior.
	encoderSlot := AbsentSlot

	if req.MESPreset != nil {
		proc, err := a.svc.GetLatestProcessor(ctx, processorMES)
		if err != nil {
			return nil, errors.Wrap(err, "job.submit", "media processor lookup failed")
		}

		cfg := *req.MESPreset
		if presets.IsFileRef(cfg) {
			cfg, err = a.presets.Load(cfg)
			if err != nil {
				return nil, errors.Wrap(err, "job.submit", "encoding preset load failed")
			}
		}

		idx := table.assign(TaskMES, "")
		encoderSlot = idx
		spec.Tasks = append(spec.Tasks, media.TaskSpec{
			Name:            "MES encoding task",
			ProcessorID:     proc.ID,
			Configuration:   cfg,
			Inputs:          []media.TaskInput{media.InputAsset(asset.ID)},
			OutputAssetName: asset.Name + " MES encoded",
		})
		log.Debug("task added", "task", string(TaskMES), "slot", idx)
	}

	if req.WorkflowAssetID != nil {
		workflow, err := a.svc.GetAsset(ctx, *req.WorkflowAssetID)
		if err != nil {
			if media.IsNotFound(err) {
				return nil, errors.WrapWithCode(err, errors.CodeNotFound, "job.submit", "Workflow not found")
			}
			return nil, errors.Wrap(err, "job.submit", "workflow lookup failed")
		}

		proc, err := a.svc.GetLatestProcessor(ctx, processorMEPW)
		if err != nil {
			return nil, errors.Wrap(err, "job.submit", "media processor lookup failed")
		}

		cfg := ""
		if req.WorkflowConfig != nil {
			cfg = *req.WorkflowConfig
		}

		idx := table.assign(TaskMEPW, "")
		encoderSlot = idx
		spec.Tasks = append(spec.Tasks, media.TaskSpec{
			Name:          "Premium Workflow encoding task",
			ProcessorID:   proc.ID,
			Configuration: cfg,
			// The workflow asset must precede the video asset.
			Inputs: []media.TaskInput{
				media.InputAsset(workflow.ID),
				media.InputAsset(asset.ID),
			},
			OutputAssetName: asset.Name + " Premium encoded",
		})
		log.Debug("task added", "task", string(TaskMEPW), "slot", idx)
	}

	if req.UseEncoderOutputForAnalytics && encoderSlot == AbsentSlot {
		return nil, errors.Validation("useEncoderOutputForAnalytics requires an encoding task (mesPreset or workflowAssetId)")
	}

	analyticsInput := media.InputAsset(asset.ID)
	if req.UseEncoderOutputForAnalytics {
		analyticsInput = media.InputTaskOutput(encoderSlot)
	}

	for _, def := range analyticsDefs {
		value := req.analyticsValue(def.name)
		if value == nil {
			continue
		}

		parameter := def.defaultValue
		if *value != "" {
			parameter = *value
		}

		proc, err := a.svc.GetLatestProcessor(ctx, def.processor)
		if err != nil {
			return nil, errors.Wrap(err, "job.submit", "media processor lookup failed")
		}

		template, err := a.presets.Load(def.presetFile)
		if err != nil {
			return nil, errors.Wrap(err, "job.submit", "preset load failed")
		}
		cfg := strings.ReplaceAll(template, def.defaultValue, parameter)

		input := analyticsInput
		if def.sourceOnly {
			input = media.InputAsset(asset.ID)
		}

		idx := table.assign(def.name, parameter)
		spec.Tasks = append(spec.Tasks, media.TaskSpec{
			Name:            def.processor + " task",
			ProcessorID:     proc.ID,
			Configuration:   cfg,
			Inputs:          []media.TaskInput{input},
			OutputAssetName: asset.Name + " " + def.processor + " processed",
		})
		log.Debug("task added", "task", string(def.name), "slot", idx, "parameter", parameter)
	}

	job, err := a.svc.SubmitJob(ctx, spec)
	if err != nil {
		// The service may keep tasks and output assets created before
		// the failure; there is no compensation call in the v2 API.
		log.Error("job submission failed", "job_name", spec.Name, "tasks", len(spec.Tasks), "error", err.Error())
		return nil, errors.Wrap(err, "job.submit", "job submission failed")
	}

	log.Info("job submitted", "job_id", job.ID, "tasks", len(spec.Tasks))

	// Refresh for the service's view; the read may lag the write, so
	// the submission response is the fallback.
	if refreshed, err := a.svc.GetJob(ctx, job.ID); err == nil {
		job = refreshed
	} else {
		log.Warn("job refresh failed, using submission response", "job_id", job.ID, "error", err.Error())
	}

	for _, name := range TaskOrder {
		slot := table.get(name)
		if slot.Absent() || slot.Index >= len(job.Tasks) {
			continue
		}
		task := job.Tasks[slot.Index]
		slot.TaskID = task.ID
		if len(task.OutputAssetIDs) > 0 {
			slot.OutputAssetID = task.OutputAssetIDs[0]
		}
	}

	queued, err := a.svc.CountJobsInState(ctx, media.StateQueued)
	if err != nil {
		return nil, errors.Wrap(err, "job.submit", "queue count failed")
	}

	return &Result{
		JobID:           job.ID,
		OtherJobsQueued: queued,
		Slots:           table.ordered(),
	}, nil
}
