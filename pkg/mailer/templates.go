package mailer

// Template names, shared with the dispatcher.
const (
	TemplateCandidateMatch = "candidate-match"
	TemplateJobMatch       = "job-match"
	TemplateStatusChange   = "status-change"
)

var templateSubjects = map[string]string{
	TemplateCandidateMatch: "{{.new_count}} new candidate(s) for {{.job_title}}",
	TemplateJobMatch:       "New teaching opportunity: {{.job_title}}",
	TemplateStatusChange:   "Update on your application to {{.school_name}}",
}

var templateBodies = map[string]string{
	TemplateCandidateMatch: `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>New candidates for {{.job_title}}</h2>
    <p>{{.new_count}} new candidate(s) are waiting on your hiring board.</p>
    <p>Sign in to review their profiles and move them through your pipeline.</p>
</body>
</html>`,

	TemplateJobMatch: `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>{{.job_title}}</h2>
    <p>{{.school_name}} posted a position that matches your profile.</p>
    <p>Open the job to read the full posting and apply.</p>
</body>
</html>`,

	TemplateStatusChange: `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Your application status changed</h2>
    <p>{{.school_name}} updated your application for <strong>{{.job_title}}</strong>.</p>
    <p>New status: <strong>{{.new_status}}</strong></p>
</body>
</html>`,
}
