package response

import (
	"errors"
	"net/http"
	"testing"

	"procureflow/pkg/apperrors"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.Validationf("amount is required"), http.StatusBadRequest},
		{apperrors.Forbiddenf("not yours"), http.StatusForbidden},
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.InvalidStatef("already approved"), http.StatusConflict},
		{apperrors.ErrDuplicateApproval, http.StatusConflict},
		{apperrors.ErrDuplicateSubmission, http.StatusConflict},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, body := FromError(tc.err)
		if status != tc.want {
			t.Errorf("FromError(%v) status = %d, want %d", tc.err, status, tc.want)
		}
		if body.Status != "error" || body.StatusCode != tc.want || body.Error == "" {
			t.Errorf("FromError(%v) body = %+v", tc.err, body)
		}
	}
}
