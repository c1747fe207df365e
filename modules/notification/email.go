package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	taskdomain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/events"
)

// Email is a composed message ready for a Mailer.
type Email struct {
	To      string
	Subject string
	HTML    string
}

var sharedTaskTmpl = template.Must(template.New("shared-task").Parse(`<h3>New Task Shared With You</h3>
<p><strong>Task Name:</strong> {{.Name}}</p>
<p><strong>Type:</strong> {{.Type}}</p>
<p><strong>Deadline:</strong> {{.Deadline}}</p>
<p>Check the app to see the task!</p>
`))

// ComposeSharedTask renders the email sent to the receiver of a shared task.
// Field values are HTML-escaped.
func ComposeSharedTask(ev events.TaskSharedEvent) (Email, error) {
	data := struct {
		Name     string
		Type     string
		Deadline string
	}{
		Name:     ev.Name,
		Type:     ev.Type,
		Deadline: displayDate(ev.Deadline),
	}

	var buf bytes.Buffer
	if err := sharedTaskTmpl.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("failed to render shared task email: %w", err)
	}

	return Email{
		To:      ev.ReceiverEmail,
		Subject: "You have a new shared task from " + ev.SenderUsername,
		HTML:    buf.String(),
	}, nil
}

func displayDate(deadline string) string {
	d, err := time.Parse(taskdomain.DateLayout, deadline)
	if err != nil {
		return deadline
	}
	return d.Format("Jan 2, 2006")
}
