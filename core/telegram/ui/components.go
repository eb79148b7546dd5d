package ui

import tele "gopkg.in/telebot.v4"

// NewArticleResult creates an inline article that posts text as plain
// message content when chosen.
func NewArticleResult(id, title, description, text string) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       title,
		Description: description,
		Text:        text,
	}
	result.SetResultID(id)
	return result
}

// PersonalAnswer builds an uncached inline response scoped to the querying user.
func PersonalAnswer(results tele.Results) *tele.QueryResponse {
	return &tele.QueryResponse{
		Results:    results,
		CacheTime:  0,
		IsPersonal: true,
	}
}
