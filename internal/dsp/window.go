package dsp

import "fmt"

// DefaultWindowSize tamanho padrão da janela de análise (1.28 s @ 200 Hz)
const DefaultWindowSize = 256

// Window snapshot imutável de uma janela completa de amostras filtradas
type Window struct {
	samples []float64
}

// Samples retorna as amostras da janela (somente leitura)
func (w *Window) Samples() []float64 {
	return w.samples
}

// Len retorna o tamanho da janela
func (w *Window) Len() int {
	return len(w.samples)
}

// WindowBuffer acumula amostras filtradas até completar uma janela de análise.
// Janelas não se sobrepõem: ao completar, o cursor volta ao início e a
// análise seguinte só ocorre após mais W amostras.
type WindowBuffer struct {
	buffer []float64
	cursor int
}

// NewWindowBuffer cria buffer com capacidade fixa.
// Capacidade inválida é erro de configuração: falhar na construção,
// nunca por amostra.
func NewWindowBuffer(capacity int) (*WindowBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacidade de janela inválida: %d", capacity)
	}
	return &WindowBuffer{buffer: make([]float64, capacity)}, nil
}

// Push adiciona uma amostra; retorna a janela completa quando o buffer enche.
// A janela retornada é um snapshot independente: o buffer interno é
// reutilizado no próximo ciclo.
func (wb *WindowBuffer) Push(sample float64) (*Window, bool) {
	wb.buffer[wb.cursor] = sample
	wb.cursor++

	if wb.cursor < len(wb.buffer) {
		return nil, false
	}

	snapshot := make([]float64, len(wb.buffer))
	copy(snapshot, wb.buffer)
	wb.cursor = 0

	return &Window{samples: snapshot}, true
}

// PeekPartial retorna cópia das amostras acumuladas até agora.
// Usado para previews periódicos de baixa confiança quando uma janela
// completa ainda não fechou.
func (wb *WindowBuffer) PeekPartial() []float64 {
	partial := make([]float64, wb.cursor)
	copy(partial, wb.buffer[:wb.cursor])
	return partial
}

// Count retorna quantas amostras estão acumuladas
func (wb *WindowBuffer) Count() int {
	return wb.cursor
}

// Capacity retorna a capacidade fixa do buffer
func (wb *WindowBuffer) Capacity() int {
	return len(wb.buffer)
}

// Reset descarta as amostras acumuladas (reinício de sessão)
func (wb *WindowBuffer) Reset() {
	wb.cursor = 0
}
