package amsrest

import (
	"encoding/xml"
	"fmt"
	"time"

	"amsgate/internal/media"
)

type odataAsset struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type odataProcessor struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Version string `json:"Version"`
}

type odataErrorDetail struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type odataAssetList struct {
	Results []odataAsset `json:"results"`
}

type odataTask struct {
	ID                string             `json:"Id"`
	Name              string             `json:"Name"`
	State             int                `json:"State"`
	StartTime         string             `json:"StartTime"`
	EndTime           string             `json:"EndTime"`
	RunningDuration   float64            `json:"RunningDuration"`
	ErrorDetails      []odataErrorDetail `json:"ErrorDetails"`
	InputMediaAssets  odataAssetList     `json:"InputMediaAssets"`
	OutputMediaAssets odataAssetList     `json:"OutputMediaAssets"`
}

type odataTaskList struct {
	Results []odataTask `json:"results"`
}

type odataJob struct {
	ID       string        `json:"Id"`
	Name     string        `json:"Name"`
	Priority int           `json:"Priority"`
	State    int           `json:"State"`
	Tasks    odataTaskList `json:"Tasks"`
}

func (j odataJob) toJob() *media.Job {
	job := &media.Job{
		ID:       j.ID,
		Name:     j.Name,
		Priority: j.Priority,
		State:    media.JobState(j.State),
		Tasks:    make([]media.Task, 0, len(j.Tasks.Results)),
	}

	for _, t := range j.Tasks.Results {
		task := media.Task{
			ID:              t.ID,
			Name:            t.Name,
			State:           media.JobState(t.State),
			StartTime:       parseODataTime(t.StartTime),
			EndTime:         parseODataTime(t.EndTime),
			RunningDuration: time.Duration(t.RunningDuration * float64(time.Second)),
		}
		for _, a := range t.InputMediaAssets.Results {
			task.InputAssetIDs = append(task.InputAssetIDs, a.ID)
		}
		for _, a := range t.OutputMediaAssets.Results {
			task.OutputAssetIDs = append(task.OutputAssetIDs, a.ID)
		}
		for _, d := range t.ErrorDetails {
			task.ErrorDetails = append(task.ErrorDetails, media.ErrorDetail{
				Code:    d.Code,
				Message: d.Message,
			})
		}
		job.Tasks = append(job.Tasks, task)
	}
	return job
}

// Job creation payload. Input assets are referenced by URI and shared
// across tasks; task bodies bind them by position.

type jobMetadata struct {
	URI string `json:"uri"`
}

type jobAssetRef struct {
	Metadata jobMetadata `json:"__metadata"`
}

type jobTaskBody struct {
	Name             string `json:"Name"`
	Configuration    string `json:"Configuration"`
	MediaProcessorID string `json:"MediaProcessorId"`
	TaskBody         string `json:"TaskBody"`
}

type jobCreateBody struct {
	Name             string        `json:"Name"`
	Priority         int           `json:"Priority"`
	InputMediaAssets []jobAssetRef `json:"InputMediaAssets"`
	Tasks            []jobTaskBody `json:"Tasks"`
}

type taskBodyXML struct {
	XMLName      xml.Name          `xml:"taskBody"`
	InputAssets  []taskInputAsset  `xml:"inputAsset"`
	OutputAssets []taskOutputAsset `xml:"outputAsset"`
}

type taskInputAsset struct {
	Value string `xml:",chardata"`
}

type taskOutputAsset struct {
	AssetName string `xml:"assetName,attr"`
	Value     string `xml:",chardata"`
}

// buildJobBody converts a JobSpec to the v2 creation payload. Every
// distinct input asset appears once in InputMediaAssets; task bodies
// reference inputs by that shared position and outputs by task index.
func buildJobBody(endpoint string, spec media.JobSpec) (*jobCreateBody, error) {
	inputIndex := make(map[string]int)
	var inputs []jobAssetRef

	indexOf := func(assetID string) int {
		if i, ok := inputIndex[assetID]; ok {
			return i
		}
		i := len(inputs)
		inputIndex[assetID] = i
		inputs = append(inputs, jobAssetRef{
			Metadata: jobMetadata{URI: fmt.Sprintf("%sAssets('%s')", endpoint, assetID)},
		})
		return i
	}

	tasks := make([]jobTaskBody, 0, len(spec.Tasks))
	for ti, ts := range spec.Tasks {
		if len(ts.Inputs) == 0 {
			return nil, fmt.Errorf("amsrest: task %q has no inputs", ts.Name)
		}

		body := taskBodyXML{}
		for _, in := range ts.Inputs {
			if in.FromTask() {
				if in.TaskIndex < 0 || in.TaskIndex >= ti {
					return nil, fmt.Errorf("amsrest: task %q chains from invalid task index %d", ts.Name, in.TaskIndex)
				}
				body.InputAssets = append(body.InputAssets, taskInputAsset{
					Value: fmt.Sprintf("JobOutputAsset(%d)", in.TaskIndex),
				})
				continue
			}
			body.InputAssets = append(body.InputAssets, taskInputAsset{
				Value: fmt.Sprintf("JobInputAsset(%d)", indexOf(in.AssetID)),
			})
		}
		body.OutputAssets = append(body.OutputAssets, taskOutputAsset{
			AssetName: ts.OutputAssetName,
			Value:     fmt.Sprintf("JobOutputAsset(%d)", ti),
		})

		raw, err := xml.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("amsrest: task body for %q: %w", ts.Name, err)
		}

		tasks = append(tasks, jobTaskBody{
			Name:             ts.Name,
			Configuration:    ts.Configuration,
			MediaProcessorID: ts.ProcessorID,
			TaskBody:         xml.Header + string(raw),
		})
	}

	return &jobCreateBody{
		Name:             spec.Name,
		Priority:         spec.Priority,
		InputMediaAssets: inputs,
		Tasks:            tasks,
	}, nil
}
