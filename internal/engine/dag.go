package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shaiso/Careerflow/internal/domain"
)

// TaskSpec — описание задачи до построения графа.
type TaskSpec struct {
	// Role — агент, выполняющий задачу.
	Role domain.Role

	// Input — входные данные задачи.
	Input map[string]any

	// DependsOn — индексы задач-зависимостей (в порядке значимости,
	// последняя даёт "previous output").
	DependsOn []int

	// Priority — подсказка для упорядочивания.
	Priority int
}

// Node — узел графа.
type Node struct {
	// Index — позиция задачи в pipeline.
	Index int

	// Spec — исходное описание задачи.
	Spec TaskSpec

	// InDegree — количество входящих рёбер (зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node
}

// Graph — направленный ациклический граф задач.
//
// Граф статичен: после BuildGraph узлы не добавляются и не удаляются.
type Graph struct {
	// Nodes — все узлы в порядке индексов.
	Nodes []*Node

	// Roots — узлы без зависимостей (точки входа).
	Roots []*Node

	// Order — топологически отсортированный список узлов.
	Order []*Node
}

// BuildGraph строит граф из списка TaskSpec.
//
// Зависимости разрешаются в ссылки на конкретные экземпляры задач,
// поэтому повторяющиеся роли (два optimizer'а) не создают неоднозначности.
func BuildGraph(specs []TaskSpec) (*Graph, error) {
	if len(specs) == 0 {
		return nil, ErrEmptyGraph
	}

	g := &Graph{
		Nodes: make([]*Node, len(specs)),
	}

	// Первый проход: создаём все узлы
	for i, spec := range specs {
		if !spec.Role.IsValid() {
			return nil, NewValidationError(indexID(i), "role",
				fmt.Sprintf("unknown role: %d", int(spec.Role)), ErrUnknownRole)
		}
		for key := range spec.Input {
			if IsReservedInputKey(key) {
				return nil, NewValidationError(indexID(i), "input",
					fmt.Sprintf("input key %q collides with a dependency output", key), ErrReservedInputKey)
			}
		}
		g.Nodes[i] = &Node{
			Index:      i,
			Spec:       spec,
			DependsOn:  make([]*Node, 0, len(spec.DependsOn)),
			Dependents: make([]*Node, 0),
		}
	}

	// Второй проход: связываем узлы по зависимостям
	for i, spec := range specs {
		for _, dep := range spec.DependsOn {
			if dep == i {
				return nil, NewValidationError(indexID(i), "depends_on",
					"task depends on itself", ErrSelfDependency)
			}
			if dep < 0 || dep >= len(specs) {
				return nil, NewValidationError(indexID(i), "depends_on",
					fmt.Sprintf("depends on unknown task: %d", dep), ErrMissingDependency)
			}
			g.addEdge(g.Nodes[dep], g.Nodes[i])
		}
	}

	g.findRoots()

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.Order = order

	return g, nil
}

// DependencyKey возвращает ключ выхода зависимости в контексте задачи.
//
// Обычно это ключ роли ("planner"). Если у задачи несколько зависимостей
// с одной ролью, ключ дополняется индексом экземпляра ("optimizer#2").
func DependencyKey(role domain.Role, index int, shared bool) string {
	if shared {
		return role.Key() + "#" + strconv.Itoa(index)
	}
	return role.Key()
}

// IsReservedInputKey сообщает, занят ли ключ выходами зависимостей.
func IsReservedInputKey(key string) bool {
	name, _, _ := strings.Cut(key, "#")
	_, err := domain.ParseRole(name)
	return err == nil
}

// addEdge добавляет ребро между узлами.
// Дубликаты игнорируются, чтобы не считать InDegree дважды.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.Index == from.Index {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// findRoots находит узлы без входящих рёбер.
func (g *Graph) findRoots() {
	g.Roots = make([]*Node, 0)
	for _, node := range g.Nodes {
		if node.InDegree == 0 {
			g.Roots = append(g.Roots, node)
		}
	}
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
func (g *Graph) topologicalSort() ([]*Node, error) {
	inDegree := make([]int, len(g.Nodes))
	for i, node := range g.Nodes {
		inDegree[i] = node.InDegree
	}

	queue := make([]*Node, len(g.Roots))
	copy(queue, g.Roots)

	order := make([]*Node, 0, len(g.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.Index]--
			if inDegree[dependent.Index] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, ErrCyclicDependency
	}

	return order, nil
}

// Ready возвращает индексы задач, готовых к выполнению.
//
// Задача готова, если она в pending и все её зависимости в completed.
// statuses индексируется так же, как Nodes. Результат упорядочен по индексу,
// функция ничего не изменяет.
func (g *Graph) Ready(statuses []domain.TaskStatus) []int {
	ready := make([]int, 0)

	for _, node := range g.Nodes {
		if statuses[node.Index] != domain.TaskStatusPending {
			continue
		}

		allDepsCompleted := true
		for _, dep := range node.DependsOn {
			if statuses[dep.Index] != domain.TaskStatusCompleted {
				allDepsCompleted = false
				break
			}
		}

		if allDepsCompleted {
			ready = append(ready, node.Index)
		}
	}

	return ready
}

// Node возвращает узел по индексу или nil.
func (g *Graph) Node(index int) *Node {
	if index < 0 || index >= len(g.Nodes) {
		return nil
	}
	return g.Nodes[index]
}

// Size возвращает количество узлов.
func (g *Graph) Size() int {
	return len(g.Nodes)
}
