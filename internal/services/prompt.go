package services

import (
	"encoding/json"
	"fmt"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildCVEvaluationPrompt creates the prompt for the CV stage.
func (pb *PromptBuilder) BuildCVEvaluationPrompt(cvText, jobDescriptionContext, rubricContext string) string {
	return fmt.Sprintf(`You are a senior technical hiring manager.
Your task is to evaluate a candidate's CV against the Job Description and the CV Scoring Rubric.

Compute a weighted average score (1-5 scale) from the rubric criteria, then CONVERT it to a 0.0 - 1.0 scale (score / 5.0).
Provide honest, concise feedback.

REFERENCE CONTEXT:
--- CV Scoring Rubric ---
%s

--- Job Description ---
%s

CANDIDATE DATA:
--- Candidate CV (text) ---
%s

OUTPUT INSTRUCTIONS:
You MUST answer ONLY with valid JSON matching this exact shape.
Do NOT add greetings, explanations, or any text outside the JSON object.

{
  "cv_match_rate": <number between 0.0 and 1.0>,
  "cv_feedback": "<honest, concise feedback, 3-5 sentences>"
}`, rubricContext, jobDescriptionContext, cvText)
}

// BuildProjectEvaluationPrompt creates the prompt for the project-report stage.
func (pb *PromptBuilder) BuildProjectEvaluationPrompt(reportText, briefContext, rubricContext string) string {
	return fmt.Sprintf(`You are a senior backend engineer.
Your task is to evaluate a candidate's project report against the Case Study Brief and the Project Scoring Rubric.

Compute a weighted average score on a 1.0 - 5.0 scale from the rubric criteria.
Provide honest, concise feedback.

REFERENCE CONTEXT:
--- Project Scoring Rubric ---
%s

--- Case Study Brief ---
%s

CANDIDATE DATA:
--- Candidate Project Report (text) ---
%s

OUTPUT INSTRUCTIONS:
You MUST answer ONLY with valid JSON matching this exact shape.
Do NOT add greetings, explanations, or any text outside the JSON object.

{
  "project_score": <number between 1.0 and 5.0>,
  "project_feedback": "<honest, concise feedback, 3-5 sentences>"
}`, rubricContext, briefContext, reportText)
}

// BuildSummaryPrompt creates the prompt for the final synthesis stage
// from the two prior stage outputs. No retrieval context is used here.
func (pb *PromptBuilder) BuildSummaryPrompt(cvEval CVEvaluation, projectEval ProjectEvaluation) string {
	cvJSON, _ := json.MarshalIndent(cvEval, "", "  ")
	projectJSON, _ := json.MarshalIndent(projectEval, "", "  ")

	return fmt.Sprintf(`You are a hiring manager.
You received two evaluation reports for one candidate.
Synthesize them into a single final summary (3-5 sentences) highlighting strengths, weaknesses, and a recommendation.

EVALUATION 1: CV
%s

EVALUATION 2: Project Report
%s

OUTPUT INSTRUCTIONS:
You MUST answer ONLY with valid JSON matching this exact shape.
Do NOT add greetings, explanations, or any text outside the JSON object.

{
  "overall_summary": "<3-5 sentence summary>"
}`, cvJSON, projectJSON)
}

// Retrieval intents per category. The job-description query is seeded
// with the job title so retrieval favors role-specific chunks.

func (pb *PromptBuilder) JobDescriptionQuery(jobTitle string) string {
	return fmt.Sprintf("skills and requirements for %s", jobTitle)
}

func (pb *PromptBuilder) CVRubricQuery() string {
	return "cv evaluation criteria and scoring guidelines"
}

func (pb *PromptBuilder) CaseStudyBriefQuery() string {
	return "case study requirements and deliverables"
}

func (pb *PromptBuilder) ProjectRubricQuery() string {
	return "project evaluation criteria and scoring guidelines"
}
