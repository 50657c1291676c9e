package llm

import (
	"fmt"
	"strings"
)

const relevancePromptTemplate = `You review posts from Telegram channels. You are given a selection criterion and the text of one post.
Rate how well the post matches the criterion on a scale from 0 to 100, where 100 is a perfect match and 0 is no match at all, and give a short reason for the rating.
Answer with a JSON object with exactly two fields, "score" and "reason", and nothing else. Do not wrap it in code fences.
Criterion: %s
Post: %s`

const genericPromptTemplate = `You review posts from Telegram channels. You are given the text of one post.
Rate how informative and useful the post is for a general reader on a scale from 0 to 100, where 100 is outstanding and 0 is worthless or spam, and give a short reason for the rating.
Answer with a JSON object with exactly two fields, "score" and "reason", and nothing else. Do not wrap it in code fences.
Post: %s`

// RelevancePrompt builds the judge prompt. A blank criterion asks for general usefulness.
func RelevancePrompt(text, criterion string) string {
	criterion = strings.TrimSpace(criterion)
	if criterion == "" {
		return fmt.Sprintf(genericPromptTemplate, text)
	}

	return fmt.Sprintf(relevancePromptTemplate, criterion, text)
}
