package processor

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// kendallExactMaxN 无并列且样本量不超过该值时使用精确分布；
// 更大的样本仅在不一致对或一致对不超过 1 个时使用精确分布
const kendallExactMaxN = 33

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

func clamp(r float64) float64 {
	return math.Max(-1, math.Min(1, r))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// pearson 返回积矩相关系数与双侧 p 值，调用方保证 len(x) >= 2 且两列均非常数
func pearson(x, y []float64) (float64, float64) {
	if len(x) == 2 {
		return sign(x[1]-x[0]) * sign(y[1]-y[0]), 1
	}
	r := clamp(stat.Correlation(x, y, nil))
	return r, tTestPValue(r, len(x))
}

// spearman 对秩（并列取平均秩）做积矩相关
func spearman(x, y []float64) (float64, float64) {
	rx, ry := rankAverage(x), rankAverage(y)
	var r float64
	if len(x) == 2 {
		r = sign(rx[1]-rx[0]) * sign(ry[1]-ry[0])
	} else {
		r = clamp(stat.Correlation(rx, ry, nil))
	}
	return r, tTestPValue(r, len(x))
}

// tTestPValue 以 n-2 自由度的 t 分布计算相关系数的双侧 p 值
func tTestPValue(r float64, n int) float64 {
	dof := float64(n - 2)
	if dof <= 0 || math.IsNaN(r) {
		return math.NaN()
	}
	if math.Abs(r) == 1 {
		return 0
	}
	t := r * math.Sqrt(dof/((1-r)*(1+r)))
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}.Survival(math.Abs(t))
	return math.Min(1, p)
}

// rankAverage 返回 1 起始的秩，并列值取平均秩
func rankAverage(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// tieSums 统计并列组：Σt(t-1), Σt(t-1)(t-2), Σt(t-1)(2t+5)
func tieSums(x []float64) (t1, t2, t3 float64, tied bool) {
	counts := make(map[float64]int)
	for _, v := range x {
		counts[v]++
	}
	for _, c := range counts {
		if c < 2 {
			continue
		}
		tied = true
		t := float64(c)
		t1 += t * (t - 1)
		t2 += t * (t - 1) * (t - 2)
		t3 += t * (t - 1) * (2*t + 5)
	}
	return t1, t2, t3, tied
}

// kendall 计算 tau-b 及双侧 p 值
func kendall(x, y []float64) (float64, float64) {
	n := len(x)
	var concordant, discordant, tiedX, tiedY float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := sign(x[i]-x[j]), sign(y[i]-y[j])
			switch {
			case dx == 0 && dy == 0:
				tiedX++
				tiedY++
			case dx == 0:
				tiedX++
			case dy == 0:
				tiedY++
			case dx == dy:
				concordant++
			default:
				discordant++
			}
		}
	}
	total := float64(n*(n-1)) / 2
	denom := math.Sqrt((total - tiedX) * (total - tiedY))
	if denom == 0 {
		return math.NaN(), math.NaN()
	}
	s := concordant - discordant
	tau := clamp(s / denom)

	xt1, xt2, xt3, xTies := tieSums(x)
	yt1, yt2, yt3, yTies := tieSums(y)
	if !xTies && !yTies && (n <= kendallExactMaxN || math.Min(discordant, total-discordant) <= 1) {
		return tau, kendallExactPValue(n, discordant)
	}

	m := float64(n * (n - 1))
	nf := float64(n)
	variance := (m*(2*nf+5)-xt3-yt3)/18 + xt1*yt1/(2*m)
	if n > 2 {
		variance += xt2 * yt2 / (9 * m * (nf - 2))
	}
	if variance <= 0 {
		return tau, math.NaN()
	}
	z := s / math.Sqrt(variance)
	return tau, math.Min(1, 2*distuv.UnitNormal.Survival(math.Abs(z)))
}

// kendallExactPValue 利用逆序数分布（Mahonian 数）计算无并列时的精确双侧 p 值
func kendallExactPValue(n int, discordant float64) float64 {
	total := n * (n - 1) / 2
	c := int(math.Min(discordant, float64(total)-discordant))
	// 至多 1 个逆序的排列共 1 + (n-1) 种，直接用阶乘避免构造大数组
	switch c {
	case 0:
		return math.Min(1, 2*math.Exp(-lgamma(n+1)))
	case 1:
		return math.Min(1, 2*math.Exp(-lgamma(n)))
	}

	counts := []float64{1}
	for k := 2; k <= n; k++ {
		next := make([]float64, len(counts)+k-1)
		for i, v := range counts {
			for j := 0; j < k; j++ {
				next[i+j] += v
			}
		}
		counts = next
	}

	var sum, tail float64
	for i, v := range counts {
		sum += v
		if i <= c {
			tail += v
		}
	}
	return math.Min(1, 2*tail/sum)
}

func lgamma(n int) float64 {
	v, _ := math.Lgamma(float64(n))
	return v
}
