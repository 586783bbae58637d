// Package persona holds the assistant's quips shown around an analysis.
package persona

import (
	"math/rand"
	"sync"
)

type Category string

const (
	Greeting     Category = "greeting"
	NoText       Category = "no_text"
	CoinsEmpty   Category = "coins_empty"
	AfterAnalyze Category = "after_analyze"
)

var quotes = map[Category][]string{
	Greeting: {
		"Ну давай, показывай, что ты там написал начальнику 👀",
		"Я тут, чтобы твои письма не звучали как ультиматум.",
		"Вставляй текст. Обещаю не осуждать. Почти.",
		"Сначала проверим тон, потом нажмём «Отправить».",
	},
	NoText: {
		"Пустое сообщение звучит идеально. Но давай всё-таки что-нибудь вставим.",
		"Мне нечего анализировать. Тишина — тоже тон, но не тот.",
		"Вставь текст, и я скажу, как он звучит.",
	},
	CoinsEmpty: {
		"Монетки на сегодня закончились. Завтра продолжим 🌙",
		"Лимит на сегодня исчерпан. Время перечитать письмо самому.",
		"Всё, бесплатные проверки кончились. Возвращайся завтра!",
	},
	AfterAnalyze: {
		"Готово! Выбирай вариант и отправляй смело.",
		"Вот так оно звучит со стороны. Дальше решать тебе.",
		"Теперь у тебя есть четыре способа сказать то же самое.",
		"Проверено. Коллеги скажут спасибо 🙂",
	},
}

// Categories lists every category with at least one quote
func Categories() []Category {
	return []Category{Greeting, NoText, CoinsEmpty, AfterAnalyze}
}

// Count returns the number of quotes in category
func Count(category Category) int {
	return len(quotes[category])
}

// Pick returns the quote of category at index, wrapping the index around
// the table. Unknown categories yield an empty string.
func Pick(category Category, index int) string {
	table := quotes[category]
	if len(table) == 0 {
		return ""
	}
	index %= len(table)
	if index < 0 {
		index += len(table)
	}
	return table[index]
}

// Picker selects quotes with a random source
type Picker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPicker(seed int64) *Picker {
	return &Picker{rnd: rand.New(rand.NewSource(seed))}
}

// Random picks a random quote of category
func (p *Picker) Random(category Category) string {
	n := Count(category)
	if n == 0 {
		return ""
	}

	p.mu.Lock()
	index := p.rnd.Intn(n)
	p.mu.Unlock()

	return Pick(category, index)
}
