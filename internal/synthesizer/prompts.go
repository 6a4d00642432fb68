package synthesizer

const (
	SystemMessage = `You are a helpful assistant answering questions about documents the user uploaded.`

	// SummaryInstruction replaces the user question when summarizing.
	SummaryInstruction = `Please provide a comprehensive summary of all the documents, highlighting the main topics and key points from each. If there are multiple documents, try to show relationships between their content when relevant.`

	queryPromptTmpl = `Context information from the uploaded documents is below.
{{range .Chunks}}---
[source: {{.DocumentID}}, page {{.Page}}]
{{.Text}}
{{end}}---
Answer the question using only the context above when possible. If the context does not contain the answer, say so.
Question: {{.Question}}
Answer:`

	summaryPromptTmpl = `Context information from the uploaded documents is below.
{{range .Chunks}}---
[source: {{.DocumentID}}, page {{.Page}}]
{{.Text}}
{{end}}---
{{.Instruction}}
Summary:`
)
