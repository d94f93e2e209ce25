// Package extract implements the two extraction phases that ingest a
// candidate's documents: profile fields from the marker-matched application
// form and a skill list from the remaining resumes. Text is pulled with
// pdftotext and structured with an OpenAI-compatible chat completion model.
package extract
