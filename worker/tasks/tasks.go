// Package tasks holds the job handlers the dispatcher runs.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/pandodao/tag-wallet/core"
)

// decode unmarshals a job payload. A payload that cannot be decoded will
// never succeed, so the error is permanent.
func decode(job *core.Job, v any) error {
	if err := json.Unmarshal(job.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", job.Queue, err, core.ErrValidation)
	}

	return nil
}

func feeReference(reference string) string {
	return "FEE-" + reference
}
