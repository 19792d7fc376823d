package tracker

import (
	"errors"
	"math"
)

// lapLarge is a cost used as infinity by the solver
const lapLarge = 1000000.0

// lapSolver solves the square linear assignment problem with the
// Jonker-Volgenant algorithm on a dense cost matrix
type lapSolver struct {
	n    int
	cost [][]float64
	// x is the column assigned to each row, y the row assigned to each column
	x []int
	y []int
	// v holds the column dual values
	v []float64
	// free holds the rows not yet assigned
	free []int
}

func newLapSolver(cost [][]float64) *lapSolver {

	n := len(cost)

	return &lapSolver{
		n:    n,
		cost: cost,
		x:    make([]int, n),
		y:    make([]int, n),
		v:    make([]float64, n),
		free: make([]int, n),
	}
}

// solve runs column reduction, two rounds of augmenting row reduction and
// then shortest path augmentation for any rows still free
func (s *lapSolver) solve() error {

	if s.n == 0 {
		return nil
	}

	nFree := s.reduceColumns()

	for round := 0; nFree > 0 && round < 2; round++ {
		nFree = s.reduceRows(nFree)
	}

	if nFree > 0 {
		return s.augment(nFree)
	}

	return nil
}

// reduceColumns performs column reduction and reduction transfer, returning
// the number of free rows
func (s *lapSolver) reduceColumns() int {

	unique := make([]bool, s.n)

	for j := 0; j < s.n; j++ {
		s.x[j] = -1
		s.v[j] = lapLarge
		s.y[j] = 0
		unique[j] = true
	}

	for i := 0; i < s.n; i++ {
		for j := 0; j < s.n; j++ {
			if c := s.cost[i][j]; c < s.v[j] {
				s.v[j] = c
				s.y[j] = i
			}
		}
	}

	for j := s.n - 1; j >= 0; j-- {
		i := s.y[j]

		if s.x[i] < 0 {
			s.x[i] = j
			continue
		}

		unique[i] = false
		s.y[j] = -1
	}

	nFree := 0

	for i := 0; i < s.n; i++ {

		if s.x[i] < 0 {
			s.free[nFree] = i
			nFree++
			continue
		}

		if !unique[i] {
			continue
		}

		j := s.x[i]
		minVal := lapLarge

		for j2 := 0; j2 < s.n; j2++ {
			if j2 == j {
				continue
			}

			if c := s.cost[i][j2] - s.v[j2]; c < minVal {
				minVal = c
			}
		}

		s.v[j] -= minVal
	}

	return nFree
}

// reduceRows performs augmenting row reduction on the free rows, returning
// the number of rows left free
func (s *lapSolver) reduceRows(nFree int) int {

	current := 0
	newFree := 0
	count := 0

	for current < nFree {

		count++
		freeI := s.free[current]
		current++

		// find the lowest and second lowest reduced cost in the row
		j1 := 0
		v1 := s.cost[freeI][0] - s.v[0]
		j2 := -1
		v2 := lapLarge

		for j := 1; j < s.n; j++ {
			c := s.cost[freeI][j] - s.v[j]

			if c >= v2 {
				continue
			}

			if c >= v1 {
				v2 = c
				j2 = j
			} else {
				v2, v1 = v1, c
				j2, j1 = j1, j
			}
		}

		i0 := s.y[j1]
		v1New := s.v[j1] - (v2 - v1)
		lowers := v1New < s.v[j1]

		switch {
		case count < current*s.n:
			if lowers {
				s.v[j1] = v1New
			} else if i0 >= 0 && j2 >= 0 {
				j1 = j2
				i0 = s.y[j2]
			}

			if i0 >= 0 {
				if lowers {
					current--
					s.free[current] = i0
				} else {
					s.free[newFree] = i0
					newFree++
				}
			}

		case i0 >= 0:
			s.free[newFree] = i0
			newFree++
		}

		s.x[freeI] = j1
		s.y[j1] = freeI
	}

	return newFree
}

// augment assigns each remaining free row along a shortest augmenting path
func (s *lapSolver) augment(nFree int) error {

	pred := make([]int, s.n)

	for _, freeI := range s.free[:nFree] {

		j := s.shortestPath(freeI, pred)

		if j < 0 || j >= s.n {
			return errors.New("assignment augmenting path out of range")
		}

		i := -1

		for steps := 0; i != freeI; steps++ {

			if steps >= s.n {
				return errors.New("assignment augmenting path did not terminate")
			}

			i = pred[j]
			s.y[j] = i
			j, s.x[i] = s.x[i], j
		}
	}

	return nil
}

// shortestPath runs one pass of the modified Dijkstra search from startI and
// returns the free column the path ends on
func (s *lapSolver) shortestPath(startI int, pred []int) int {

	lo := 0
	hi := 0
	nReady := 0
	finalJ := -1
	cols := make([]int, s.n)
	d := make([]float64, s.n)

	for j := 0; j < s.n; j++ {
		cols[j] = j
		pred[j] = startI
		d[j] = s.cost[startI][j] - s.v[j]
	}

	for finalJ == -1 {

		if lo == hi {
			nReady = lo
			hi = s.collectMin(lo, d, cols)

			for k := lo; k < hi; k++ {
				if j := cols[k]; s.y[j] < 0 {
					finalJ = j
				}
			}
		}

		if finalJ == -1 {
			finalJ = s.scan(&lo, &hi, d, cols, pred)
		}
	}

	mind := d[cols[lo]]

	for k := 0; k < nReady; k++ {
		j := cols[k]
		s.v[j] += d[j] - mind
	}

	return finalJ
}

// collectMin moves the columns with minimum distance d to the front of the
// unscanned part of cols and returns the end of that group
func (s *lapSolver) collectMin(lo int, d []float64, cols []int) int {

	hi := lo + 1
	mind := d[cols[lo]]

	for k := hi; k < s.n; k++ {

		j := cols[k]

		if d[j] > mind {
			continue
		}

		if d[j] < mind {
			hi = lo
			mind = d[j]
		}

		cols[k] = cols[hi]
		cols[hi] = j
		hi++
	}

	return hi
}

// scan relaxes the remaining columns through the columns on the scan list,
// returning a free column if one is reached at minimum distance or -1
func (s *lapSolver) scan(lo, hi *int, d []float64, cols, pred []int) int {

	for *lo != *hi {

		j := cols[*lo]
		*lo++
		i := s.y[j]
		mind := d[j]
		h := s.cost[i][j] - s.v[j] - mind

		for k := *hi; k < s.n; k++ {

			j = cols[k]
			reduced := s.cost[i][j] - s.v[j] - h

			if reduced >= d[j] {
				continue
			}

			d[j] = reduced
			pred[j] = i

			if reduced == mind {
				if s.y[j] < 0 {
					return j
				}

				cols[k] = cols[*hi]
				cols[*hi] = j
				*hi++
			}
		}
	}

	return -1
}

// solveAssignment solves a possibly rectangular assignment problem.  Pairs
// with a cost above costLimit are left unassigned.  The returned slices hold
// the assigned column per row and the assigned row per column, with -1 for
// no assignment.
func solveAssignment(cost [][]float64, costLimit float64) ([]int, []int, error) {

	rows := len(cost)

	if rows == 0 {
		return nil, nil, nil
	}

	cols := len(cost[0])

	rowSol := make([]int, rows)
	colSol := make([]int, cols)

	// pad to a square matrix of rows+cols where the padding cost of half the
	// limit makes leaving a row and a column unassigned cheaper than pairing
	// them above the limit
	n := rows + cols
	fill := costLimit / 2

	if math.IsInf(costLimit, 1) {
		fill = 0

		for _, row := range cost {
			for _, c := range row {
				fill = math.Max(fill, c)
			}
		}

		fill++
	}

	square := make([][]float64, n)

	for i := range square {
		square[i] = make([]float64, n)

		for j := range square[i] {
			switch {
			case i < rows && j < cols:
				square[i][j] = cost[i][j]
			case i >= rows && j >= cols:
				square[i][j] = 0
			default:
				square[i][j] = fill
			}
		}
	}

	solver := newLapSolver(square)

	if err := solver.solve(); err != nil {
		return nil, nil, err
	}

	for i := 0; i < rows; i++ {
		rowSol[i] = solver.x[i]

		if rowSol[i] >= cols {
			rowSol[i] = -1
		}
	}

	for j := 0; j < cols; j++ {
		colSol[j] = solver.y[j]

		if colSol[j] >= rows {
			colSol[j] = -1
		}
	}

	return rowSol, colSol, nil
}
