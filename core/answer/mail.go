package answer

import (
	"net/mail"
	"strconv"
	texttmpl "text/template"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/question"
	"github.com/trezcool/graderly/core/user"
)

var gradeUpdatedTmpl = texttmpl.Must(texttmpl.New("grade_updated").Parse(`Hi {{.Name}},

Your answer to the question below has been reviewed by a teacher.

Question: {{.Question}}
Your answer: {{.Answer}}
{{with .Score}}Score: {{.}}
{{end}}{{with .Category}}Category: {{.}}
{{end}}{{with .Feedback}}Feedback: {{.}}
{{end}}`))

type gradeUpdatedData struct {
	Name     string
	Question string
	Answer   string
	Score    string
	Category string
	Feedback string
}

func newGradeUpdatedMessage(student user.User, q question.Question, ans Answer) *core.EmailMessage {
	data := gradeUpdatedData{
		Name:     student.Name,
		Question: q.Text,
		Answer:   ans.Text,
	}
	if ans.Score != nil {
		data.Score = strconv.FormatFloat(*ans.Score, 'f', 2, 64)
	}
	if ans.Category != nil {
		data.Category = *ans.Category
	}
	if ans.Feedback != nil {
		data.Feedback = *ans.Feedback
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Your answer has been graded",
		Template:     gradeUpdatedTmpl,
		TemplateData: data,
	}
}
