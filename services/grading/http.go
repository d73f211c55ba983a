package gradingsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/answer"
)

const (
	serviceName = "grading service"
	gradePath   = "/grade"
)

type httpOracle struct {
	url    string
	client *rest.Client
}

var _ answer.Oracle = (*httpOracle)(nil)

// NewHTTPOracle returns an answer.Oracle calling `POST <grading.url>/grade`.
// Each call is a single attempt bounded by grading.timeout.
func NewHTTPOracle(conf *core.Config) answer.Oracle {
	return &httpOracle{
		url:    strings.TrimRight(conf.Grading.URL, "/") + gradePath,
		client: &rest.Client{HTTPClient: &http.Client{Timeout: conf.Grading.Timeout}},
	}
}

type gradeResponse struct {
	Score    *float64 `json:"score"`
	Category *string  `json:"category"`
}

func (o *httpOracle) Grade(ctx context.Context, req answer.GradeRequest) (answer.Grade, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return answer.Grade{}, errors.Wrap(err, "encoding grade request")
	}

	res, err := o.client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: o.url,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body: body,
	})
	if err != nil {
		return answer.Grade{}, core.NewDependencyError(serviceName, err)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return answer.Grade{}, core.NewDependencyError(serviceName, fmt.Errorf("unexpected status %d", res.StatusCode))
	}

	var gr gradeResponse
	if err = json.Unmarshal([]byte(res.Body), &gr); err != nil {
		return answer.Grade{}, core.NewDependencyError(serviceName, errors.Wrap(err, "decoding grade response"))
	}
	if gr.Score == nil || gr.Category == nil {
		return answer.Grade{}, core.NewDependencyError(serviceName, errors.New("incomplete grade response"))
	}
	return answer.Grade{Score: *gr.Score, Category: *gr.Category}, nil
}
