package handlers

import (
	"net/http"

	"amsgate/internal/httpkit"
	"amsgate/internal/poller"
)

type CheckTaskStatusRequest struct {
	JobID        string `json:"jobId"`
	TaskID       string `json:"taskId"`
	ExtendedInfo bool   `json:"extendedInfo"`
}

// ExtendedStatusInfo mirrors poller.ExtendedInfo on the wire.
type ExtendedStatusInfo struct {
	MediaUnitNumber     int    `json:"mediaUnitNumber"`
	MediaUnitSize       string `json:"mediaUnitSize"`
	OtherJobsProcessing int    `json:"otherJobsProcessing"`
	OtherJobsScheduled  int    `json:"otherJobsScheduled"`
	OtherJobsQueue      int    `json:"otherJobsQueue"`
	AMSRESTAPIEndpoint  string `json:"amsRESTAPIEndpoint"`
}

// CheckTaskStatusResponse always carries the text fields, empty when
// unset; only extendedInfo is conditionally present.
type CheckTaskStatusResponse struct {
	TaskState       int                 `json:"taskState"`
	IsRunning       bool                `json:"isRunning"`
	IsSuccessful    bool                `json:"isSuccessful"`
	ErrorText       string              `json:"errorText"`
	StartTime       string              `json:"startTime"`
	EndTime         string              `json:"endTime"`
	RunningDuration string              `json:"runningDuration"`
	Extended        *ExtendedStatusInfo `json:"extendedInfo,omitempty"`
}

// CheckTaskStatus polls a task until it settles or the poll budget is
// spent, then reports its state.
func (h *Handler) CheckTaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	var req CheckTaskStatusRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "invalid json body")
		return
	}

	if req.JobID == "" || req.TaskID == "" {
		httpkit.WriteErr(w, 400, "Please pass the job and task ID in the input object (jobId, taskId)")
		return
	}

	result, err := h.poller.Check(ctx, poller.Request{
		JobID:        req.JobID,
		TaskID:       req.TaskID,
		ExtendedInfo: req.ExtendedInfo,
	})
	if err != nil {
		log.WithError(err).WithJobID(req.JobID).WithTaskID(req.TaskID).Warn("task status check failed")
		httpkit.WriteError(w, err)
		return
	}

	resp := CheckTaskStatusResponse{
		TaskState:       int(result.TaskState),
		IsRunning:       result.IsRunning,
		IsSuccessful:    result.IsSuccessful,
		ErrorText:       result.ErrorText,
		StartTime:       result.StartTime,
		EndTime:         result.EndTime,
		RunningDuration: result.RunningDuration,
	}
	if result.Extended != nil {
		resp.Extended = &ExtendedStatusInfo{
			MediaUnitNumber:     result.Extended.MediaUnitNumber,
			MediaUnitSize:       result.Extended.MediaUnitSize,
			OtherJobsProcessing: result.Extended.OtherJobsProcessing,
			OtherJobsScheduled:  result.Extended.OtherJobsScheduled,
			OtherJobsQueue:      result.Extended.OtherJobsQueued,
			AMSRESTAPIEndpoint:  result.Extended.RESTAPIEndpoint,
		}
	}

	httpkit.WriteJSON(w, 200, resp)
}
