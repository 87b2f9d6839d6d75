package assembler

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amsgate/internal/assembler/presets"
	"amsgate/internal/media"
	"amsgate/internal/media/mediatest"
	"amsgate/internal/pkg/errors"
)

func strp(s string) *string { return &s }

func newAssembler(svc media.Service) *Assembler {
	return New(svc, presets.NewStore(""), nil)
}

func TestSubmitAssetOnly(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	res, err := newAssembler(svc).Submit(context.Background(), Request{AssetID: assetID})
	require.NoError(t, err)

	assert.NotEmpty(t, res.JobID)
	assert.Empty(t, svc.LastSpec.Tasks)
	for _, name := range TaskOrder {
		slot := res.Slot(name)
		assert.True(t, slot.Absent(), "slot %s should be absent", name)
		assert.Empty(t, slot.TaskID)
		assert.Empty(t, slot.OutputAssetID)
	}
}

func TestSubmitMissingAssetID(t *testing.T) {
	svc := mediatest.New()

	_, err := newAssembler(svc).Submit(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, svc.Calls, "no service call before validation")
}

func TestSubmitAssetNotFound(t *testing.T) {
	svc := mediatest.New()

	_, err := newAssembler(svc).Submit(context.Background(), Request{AssetID: "nb:cid:UUID:nope"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Asset not found")
}

func TestSubmitMES(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	res, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:   assetID,
		MESPreset: strp("H264 Multiple Bitrate 720p"),
	})
	require.NoError(t, err)

	slot := res.Slot(TaskMES)
	require.False(t, slot.Absent())
	assert.Equal(t, 0, slot.Index)
	assert.NotEmpty(t, slot.TaskID)
	assert.NotEmpty(t, slot.OutputAssetID)

	require.Len(t, svc.LastSpec.Tasks, 1)
	task := svc.LastSpec.Tasks[0]
	assert.Equal(t, "MES encoding task", task.Name)
	assert.Equal(t, "H264 Multiple Bitrate 720p", task.Configuration)
	assert.Equal(t, []media.TaskInput{media.InputAsset(assetID)}, task.Inputs)
	assert.Equal(t, "movie MES encoded", task.OutputAssetName)
}

func TestSubmitMESPresetFile(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	_, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:   assetID,
		MESPreset: strp("H264MultipleBitrate720p.json"),
	})
	require.NoError(t, err)

	// File references are resolved to the preset text.
	cfg := svc.LastSpec.Tasks[0].Configuration
	assert.Contains(t, cfg, "H264Layer")
	assert.NotContains(t, cfg, ".json")
}

func TestSubmitMESPresetFileUnknown(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	_, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:   assetID,
		MESPreset: strp("NoSuchPreset.json"),
	})
	require.Error(t, err)
}

func TestSubmitPremiumWorkflowInputOrder(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")
	workflowID := svc.AddAsset("workflow")

	res, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:         assetID,
		WorkflowAssetID: strp(workflowID),
		WorkflowConfig:  strp("<config/>"),
	})
	require.NoError(t, err)

	slot := res.Slot(TaskMEPW)
	require.False(t, slot.Absent())
	assert.Equal(t, 0, slot.Index)

	require.Len(t, svc.LastSpec.Tasks, 1)
	task := svc.LastSpec.Tasks[0]
	assert.Equal(t, "Premium Workflow encoding task", task.Name)
	assert.Equal(t, "<config/>", task.Configuration)
	// The workflow asset always precedes the video asset.
	assert.Equal(t, []media.TaskInput{
		media.InputAsset(workflowID),
		media.InputAsset(assetID),
	}, task.Inputs)
	assert.Equal(t, "movie Premium encoded", task.OutputAssetName)
}

func TestSubmitWorkflowNotFound(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	_, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:         assetID,
		WorkflowAssetID: strp("nb:cid:UUID:nope"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Workflow not found")
}

func TestSubmitAnalyticsOptionsIndependent(t *testing.T) {
	// Presence of an option creates exactly its task; absence leaves the
	// slot empty regardless of the other options.
	cases := []struct {
		name  TaskName
		apply func(*Request)
	}{
		{TaskIndexV1, func(r *Request) { r.IndexV1Language = strp("Spanish") }},
		{TaskIndexV2, func(r *Request) { r.IndexV2Language = strp("EsEs") }},
		{TaskOCR, func(r *Request) { r.OCRLanguage = strp("English") }},
		{TaskFaceDetection, func(r *Request) { r.FaceDetectionMode = strp("Faces") }},
		{TaskFaceRedaction, func(r *Request) { r.FaceRedactionMode = strp("analyze") }},
		{TaskMotion, func(r *Request) { r.MotionDetectionLevel = strp("high") }},
		{TaskSummarization, func(r *Request) { r.SummarizationDuration = strp("30.0") }},
		{TaskHyperlapse, func(r *Request) { r.HyperlapseSpeed = strp("4") }},
	}

	for _, tc := range cases {
		t.Run(string(tc.name), func(t *testing.T) {
			svc := mediatest.New()
			assetID := svc.AddAsset("movie")

			req := Request{AssetID: assetID}
			tc.apply(&req)

			res, err := newAssembler(svc).Submit(context.Background(), req)
			require.NoError(t, err)

			slot := res.Slot(tc.name)
			require.False(t, slot.Absent())
			assert.Equal(t, 0, slot.Index)
			assert.NotEmpty(t, slot.TaskID)
			assert.NotEmpty(t, slot.OutputAssetID)

			for _, other := range TaskOrder {
				if other == tc.name {
					continue
				}
				assert.True(t, res.Slot(other).Absent(), "slot %s should be absent", other)
			}
		})
	}
}

func TestSubmitAnalyticsDefaults(t *testing.T) {
	// An empty option value still creates the task, with the documented
	// default parameter.
	cases := []struct {
		name         TaskName
		apply        func(*Request)
		defaultValue string
	}{
		{TaskIndexV1, func(r *Request) { r.IndexV1Language = strp("") }, "English"},
		{TaskIndexV2, func(r *Request) { r.IndexV2Language = strp("") }, "EnUs"},
		{TaskOCR, func(r *Request) { r.OCRLanguage = strp("") }, "AutoDetect"},
		{TaskFaceDetection, func(r *Request) { r.FaceDetectionMode = strp("") }, "PerFaceEmotion"},
		{TaskFaceRedaction, func(r *Request) { r.FaceRedactionMode = strp("") }, "combined"},
		{TaskMotion, func(r *Request) { r.MotionDetectionLevel = strp("") }, "medium"},
		{TaskSummarization, func(r *Request) { r.SummarizationDuration = strp("") }, "0.0"},
		{TaskHyperlapse, func(r *Request) { r.HyperlapseSpeed = strp("") }, "8"},
	}

	for _, tc := range cases {
		t.Run(string(tc.name), func(t *testing.T) {
			svc := mediatest.New()
			assetID := svc.AddAsset("movie")

			req := Request{AssetID: assetID}
			tc.apply(&req)

			res, err := newAssembler(svc).Submit(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tc.defaultValue, res.Slot(tc.name).Parameter)
		})
	}
}

func TestSubmitAnalyticsParameterSubstitution(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	res, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:         assetID,
		IndexV1Language: strp("Spanish"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Spanish", res.Slot(TaskIndexV1).Parameter)

	cfg := svc.LastSpec.Tasks[0].Configuration
	assert.Contains(t, cfg, `value="Spanish"`)
	assert.NotContains(t, cfg, `value="English"`)
}

func TestSubmitFixedTaskOrder(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")
	workflowID := svc.AddAsset("workflow")

	res, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:               assetID,
		MESPreset:             strp("H264 Multiple Bitrate 720p"),
		WorkflowAssetID:       strp(workflowID),
		IndexV1Language:       strp(""),
		IndexV2Language:       strp(""),
		OCRLanguage:           strp(""),
		FaceDetectionMode:     strp(""),
		FaceRedactionMode:     strp(""),
		MotionDetectionLevel:  strp(""),
		SummarizationDuration: strp(""),
		HyperlapseSpeed:       strp(""),
	})
	require.NoError(t, err)

	require.Len(t, svc.LastSpec.Tasks, len(TaskOrder))
	for i, name := range TaskOrder {
		slot := res.Slot(name)
		require.False(t, slot.Absent(), "slot %s", name)
		assert.Equal(t, i, slot.Index, "slot %s", name)
	}
	assert.Equal(t, res.Slots, resolveOrdered(res), "Slots reported in fixed order")
}

func resolveOrdered(res *Result) []Slot {
	out := make([]Slot, 0, len(TaskOrder))
	for _, name := range TaskOrder {
		out = append(out, res.Slot(name))
	}
	return out
}

func TestSubmitEncoderOutputForAnalytics(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	_, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:                      assetID,
		MESPreset:                    strp("H264 Multiple Bitrate 720p"),
		OCRLanguage:                  strp(""),
		UseEncoderOutputForAnalytics: true,
	})
	require.NoError(t, err)

	require.Len(t, svc.LastSpec.Tasks, 2)
	ocrTask := svc.LastSpec.Tasks[1]
	assert.Equal(t, []media.TaskInput{media.InputTaskOutput(0)}, ocrTask.Inputs)
}

func TestSubmitEncoderOutputPrefersPremium(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")
	workflowID := svc.AddAsset("workflow")

	_, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:                      assetID,
		MESPreset:                    strp("H264 Multiple Bitrate 720p"),
		WorkflowAssetID:              strp(workflowID),
		OCRLanguage:                  strp(""),
		UseEncoderOutputForAnalytics: true,
	})
	require.NoError(t, err)

	require.Len(t, svc.LastSpec.Tasks, 3)
	ocrTask := svc.LastSpec.Tasks[2]
	assert.Equal(t, []media.TaskInput{media.InputTaskOutput(1)}, ocrTask.Inputs)
}

func TestSubmitEncoderOutputWithoutEncoder(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	_, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:                      assetID,
		OCRLanguage:                  strp(""),
		UseEncoderOutputForAnalytics: true,
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestSubmitHyperlapseAlwaysUsesSource(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")

	_, err := newAssembler(svc).Submit(context.Background(), Request{
		AssetID:                      assetID,
		MESPreset:                    strp("H264 Multiple Bitrate 720p"),
		HyperlapseSpeed:              strp("4"),
		UseEncoderOutputForAnalytics: true,
	})
	require.NoError(t, err)

	require.Len(t, svc.LastSpec.Tasks, 2)
	assert.Equal(t, []media.TaskInput{media.InputAsset(assetID)}, svc.LastSpec.Tasks[1].Inputs)
}

func TestSubmitJobNameAndPriority(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")
	a := newAssembler(svc)

	_, err := a.Submit(context.Background(), Request{AssetID: assetID})
	require.NoError(t, err)
	assert.Equal(t, DefaultJobName, svc.LastSpec.Name)
	assert.Equal(t, DefaultPriority, svc.LastSpec.Priority)

	priority := 2
	_, err = a.Submit(context.Background(), Request{
		AssetID:  assetID,
		JobName:  strp("nightly encode"),
		Priority: &priority,
	})
	require.NoError(t, err)
	assert.Equal(t, "nightly encode", svc.LastSpec.Name)
	assert.Equal(t, 2, svc.LastSpec.Priority)
}

func TestSubmitCountsQueuedJobs(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")
	svc.AddJob(&media.Job{State: media.StateQueued})
	svc.AddJob(&media.Job{State: media.StateProcessing})

	res, err := newAssembler(svc).Submit(context.Background(), Request{AssetID: assetID})
	require.NoError(t, err)

	// The submitted job itself is queued too.
	assert.Equal(t, 2, res.OtherJobsQueued)
}

func TestSubmitServiceFailure(t *testing.T) {
	svc := mediatest.New()
	assetID := svc.AddAsset("movie")
	svc.SubmitErr = fmt.Errorf("quota exceeded")

	_, err := newAssembler(svc).Submit(context.Background(), Request{AssetID: assetID})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quota exceeded"))
}
