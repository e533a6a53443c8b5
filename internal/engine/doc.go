// Package engine содержит статический граф задач pipeline.
//
// Включает:
//   - dag.go     — построение и обход DAG задач (зависимости по индексам)
//   - default.go — фиксированный граф обработки резюме из 7 задач
//   - parser.go  — загрузка пользовательского графа из JSON
//
// Engine отвечает только за структуру графа и готовность задач.
// Выполнение задач и их состояние — в пакете orchestrator.
package engine
