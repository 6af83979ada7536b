package generator

import (
	"fmt"

	"github.com/kingbrown/caesarstudy/internal/study"
)

func actScenePrompt(act, scene int, level study.Level) string {
	return fmt.Sprintf("Generate 10 fresh, exam-style questions with concise answers from Shakespeare's Julius Caesar, "+
		"focusing on Act %d Scene %d. The questions should be appropriate for a %s academic level. "+
		"Ensure the questions are unique. Return valid JSON.", act, scene, level)
}

func characterPrompt(character string, level study.Level) string {
	return fmt.Sprintf("Generate 10 new and insightful analytical questions with concise answers about the character %s "+
		"from Shakespeare's Julius Caesar. The questions should be suitable for a %s academic level. "+
		"Avoid common or repetitive questions. Return valid JSON.", character, level)
}

func quizPrompt(level study.Level) string {
	return fmt.Sprintf("Create a brand new 10-question multiple-choice quiz on Shakespeare's Julius Caesar, "+
		"ensuring the questions are different from previous quizzes and tailored for a %s audience. "+
		"Each question must include 4 options (labeled a, b, c, d) and 1 correct answer. Return valid JSON.", level)
}

func doubtPrompt(question string) string {
	return fmt.Sprintf("You are an expert tutor on Shakespeare's \"Julius Caesar\". "+
		"A student has the following question: \"%s\". Provide a clear, concise, and helpful answer.", question)
}
