// pkg/registry/registry.go

// Package registry reads the worker activity catalog used by the
// pricing pipeline. The catalog describes each task type's variables,
// error codes and retry policy so tooling and the worker manager can
// cross-check what is deployed.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// FindByTaskType returns the activity registered for the given Zeebe
// task type, or nil when the catalog has no entry for it.
func (r *ActivityRegistry) FindByTaskType(taskType string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i]
		}
	}
	return nil
}
