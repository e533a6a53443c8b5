// Package aiengine — AI-движок, выполняющий задачи pipeline.
//
// Движок получает роль агента, сериализованный контекст и результат
// предыдущего шага и возвращает сгенерированный текст.
//
// Реализации:
//   - openai.go    — OpenAI-совместимый /chat/completions (DeepSeek и др.)
//   - anthropic.go — Anthropic Messages API через официальный SDK
//
// Таймауты и ошибки upstream обрабатываются здесь; оркестратор
// считает любую ошибку движка фатальной для задачи.
package aiengine
