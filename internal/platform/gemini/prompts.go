package gemini

import (
	"bytes"
	"text/template"
)

// Prompt templates. Each instructs the model to answer with a single JSON
// document matching the schema the parsing code expects.
const examPromptTemplate = `You are generating a vocabulary exam.

Spelling words (produce exactly one question per word, {{len .SpellingWords}} in total):
{{range .SpellingWords}}- word: {{.Word}} | meaning: {{.Meaning}}
{{end}}
Translation words (write exactly {{.SentenceCount}} natural English sentences;
every sentence must use at least one of these words, and every word must
appear in at least one sentence):
{{range .TranslationWords}}- {{.Word}}
{{end}}
Respond with a single JSON object, no surrounding prose:
{
  "spelling": [{"word": "...", "prompt": "..."}],
  "sentences": [{"sentence": "...", "words_used": ["..."]}]
}
The "prompt" field paraphrases the meaning without revealing the word.
The "spelling" array must contain exactly {{len .SpellingWords}} objects, one
per word in the order given. The "sentences" array must contain exactly
{{.SentenceCount}} objects.`

const entryPromptTemplate = `You are a dictionary. Describe the word "{{.Word}}".

Respond with a single JSON object, no surrounding prose:
{
  "meaning": "...",
  "phonetic": "...",
  "part_of_speech": "...",
  "sentences": ["...", "..."]
}
Give a concise learner-friendly meaning, the IPA phonetic transcription,
the primary part of speech, and two short example sentences.`

const gradingPromptTemplate = `You are grading a translation exercise.

Original sentence: {{.Sentence}}
Required vocabulary: {{range $i, $w := .RequiredWords}}{{if $i}}, {{end}}{{$w}}{{end}}
Student translation: {{.UserTranslation}}

Judge whether the student translation preserves the meaning of the original
sentence. Minor phrasing differences are acceptable; missing or inverted
meaning is not.

Respond with a single JSON object, no surrounding prose:
{
  "correct": true,
  "feedback": "..."
}
The "feedback" field is one or two sentences explaining the verdict.`

var (
	examPrompt    = template.Must(template.New("exam").Parse(examPromptTemplate))
	entryPrompt   = template.Must(template.New("entry").Parse(entryPromptTemplate))
	gradingPrompt = template.Must(template.New("grading").Parse(gradingPromptTemplate))
)

func renderPrompt(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
