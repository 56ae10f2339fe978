package helpers

import (
	"fmt"
	"net/http"
	"testing"

	"interview_backend/internal/services/dto"

	"github.com/stretchr/testify/require"
)

// CandidateBody builds a create-candidate payload with the skills filed
// under a single category.
func CandidateBody(name string, years float64, skills ...string) map[string]interface{} {
	return map[string]interface{}{
		"full_name":                name,
		"email":                    fmt.Sprintf("%s@example.com", name),
		"overall_experience_years": years,
		"skills":                   map[string][]string{"Key Skills": skills},
	}
}

func JobBody(title string, minYears float64, required, preferred []string) map[string]interface{} {
	return map[string]interface{}{
		"title":                         title,
		"company_name":                  "Acme",
		"min_required_experience_years": minYears,
		"required_skills":               required,
		"preferred_skills":              preferred,
	}
}

// CreateCandidate posts a candidate through the API and returns its id.
func CreateCandidate(t *testing.T, ts *TestServer, body map[string]interface{}) uint {
	t.Helper()
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/candidates", body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var out dto.CreateCandidateResponse
	require.NoError(t, decodeJSON(bodyStr, &out))
	return out.Candidate.ID
}

func CreateJob(t *testing.T, ts *TestServer, body map[string]interface{}) uint {
	t.Helper()
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/jobs", body)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var out dto.CreateJobResponse
	require.NoError(t, decodeJSON(bodyStr, &out))
	return out.Job.ID
}
