package dsp

import "math"

// Coeficientes do passa-banda 3-30 Hz calculados para 200 Hz de amostragem.
// Recalcular se a taxa de amostragem mudar.
var (
	defaultB = [3]float64{0.0976, 0.1952, 0.0976}
	defaultA = [3]float64{1.0, -0.9428, 0.3333}
)

// BandpassFilter filtro IIR biquad passa-banda aplicado amostra a amostra.
// Forma direta I: guarda as duas últimas entradas e as duas últimas saídas.
// O firmware legado cancelava algebricamente os termos a1/a2 e degenerava
// num FIR de média móvel; aqui a recorrência completa é aplicada.
type BandpassFilter struct {
	b [3]float64
	a [3]float64

	x1, x2 float64 // entradas anteriores
	y1, y2 float64 // saídas anteriores
}

// NewBandpassFilter cria filtro com os coeficientes padrão (3-30 Hz @ 200 Hz)
func NewBandpassFilter() *BandpassFilter {
	return &BandpassFilter{b: defaultB, a: defaultA}
}

// NewBandpassFilterWithCoefficients cria filtro com coeficientes customizados
func NewBandpassFilterWithCoefficients(b, a [3]float64) *BandpassFilter {
	return &BandpassFilter{b: b, a: a}
}

// Filter processa uma amostra bruta e retorna a amostra filtrada.
// Entrada NaN/Inf é tratada como zero para não contaminar o estado.
func (f *BandpassFilter) Filter(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}

	y := f.b[0]*x + f.b[1]*f.x1 + f.b[2]*f.x2 - f.a[1]*f.y1 - f.a[2]*f.y2

	f.x2 = f.x1
	f.x1 = x
	f.y2 = f.y1
	f.y1 = y

	return y
}

// Reset zera todo o histórico do filtro.
// Usado quando uma sessão de amostragem reinicia, para evitar
// transiente causado por estado antigo.
func (f *BandpassFilter) Reset() {
	f.x1, f.x2 = 0, 0
	f.y1, f.y2 = 0, 0
}
