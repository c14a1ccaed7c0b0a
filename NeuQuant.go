package gifencoder

/*
NeuQuant Neural-Net Quantization Algorithm
------------------------------------------

Copyright (c) 1994 Anthony Dekker

NEUQUANT Neural-Net quantization algorithm by Anthony Dekker, 1994.
See "Kohonen neural networks for optimal colour quantization"
in "Network: Computation in Neural Systems" Vol. 5 (1994) pp 351-367.
for a discussion of the algorithm.
See also http://members.ozemail.com.au/~dekker/NEUQUANT.HTML

Any party obtaining a copy of these files from the author, directly or
indirectly, is granted, free of charge, a full and unrestricted irrevocable,
world-wide, paid up, royalty-free, nonexclusive right and license to deal
in this software and documentation files (the "Software"), including without
limitation the rights to use, copy, modify, merge, publish, distribute, sublicense,
and/or sell copies of the Software, and to permit persons who receive
copies from any such party to do so, with the only requirement being
that this copyright notice remain intact.
*/

const (
	ncycles         = 100 // number of learning cycles
	netsize         = 256 // number of colors used
	maxnetpos       = netsize - 1
	netbiasshift    = 4  // bias for colour values
	intbiasshift    = 16 // bias for fractions
	intbias         = 1 << intbiasshift
	gammashift      = 10
	betashift       = 10
	beta            = intbias >> betashift // beta = 1/1024
	betagamma       = intbias << (gammashift - betashift)
	initrad         = netsize >> 3 // for 256 cols, radius starts
	radiusbiasshift = 6            // at 32.0 biased by 6 bits
	initradius      = initrad << radiusbiasshift
	radiusdec       = 30 // factor of 1/30 each cycle
	alphabiasshift  = 10 // alpha starts at 1.0
	initalpha       = 1 << alphabiasshift
	radbiasshift    = 8
	radbias         = 1 << radbiasshift
	alpharadbshift  = alphabiasshift + radbiasshift
	alpharadbias    = 1 << alpharadbshift

	// four primes near 500, assume no image has a length so large
	// that it is divisible by all four primes
	prime1          = 499
	prime2          = 491
	prime3          = 487
	prime4          = 503
	minpicturebytes = 3 * prime4

	minSampleFac = 1
	maxSampleFac = 30
)

// neuron is one palette slot: three biased colour channels in pixel byte
// order followed by the slot number it had before sorting.
type neuron [4]int32

// NeuQuant is a neural network color quantizer. A NeuQuant is trained once
// by BuildColormap; afterwards it is only read and may be shared between
// goroutines for lookups.
type NeuQuant struct {
	network  [netsize]neuron
	netindex [256]int32 // green value -> first search position
	bias     [netsize]int32
	freq     [netsize]int32
	radpower [initrad]int32

	pixels    []byte // RGB input, dropped after training
	samplefac int
}

// NewNeuQuant creates a new NeuQuant instance.
// pixels is an RGB byte array [r,g,b,r,g,b,...] and samplefac a sampling
// factor from 1 to 30 where lower is better quality.
func NewNeuQuant(pixels []byte, samplefac int) *NeuQuant {
	if samplefac < minSampleFac {
		samplefac = minSampleFac
	}
	if samplefac > maxSampleFac {
		samplefac = maxSampleFac
	}
	return &NeuQuant{
		pixels:    pixels,
		samplefac: samplefac,
	}
}

// BuildColormap initializes and trains the network, then unbiases it and
// builds the green index used by LookupRGB.
func (nq *NeuQuant) BuildColormap() {
	nq.init()
	nq.learn()
	nq.pixels = nil
	nq.unbiasnet()
	nq.inxbuild()
}

// GetColormap returns the palette as [r,g,b,r,g,b,...] in slot order.
func (nq *NeuQuant) GetColormap() []byte {
	var index [netsize]int
	for i := range nq.network {
		index[nq.network[i][3]] = i
	}

	colormap := make([]byte, 0, netsize*3)
	for _, j := range index {
		n := &nq.network[j]
		colormap = append(colormap, byte(n[0]), byte(n[1]), byte(n[2]))
	}
	return colormap
}

// LookupRGB returns the palette slot closest to r, g, b.
func (nq *NeuQuant) LookupRGB(r, g, b byte) int {
	return nq.inxsearch(int32(r), int32(g), int32(b))
}

func (nq *NeuQuant) init() {
	for i := range nq.network {
		v := int32((i << (netbiasshift + 8)) / netsize)
		nq.network[i] = neuron{v, v, v, 0}
		nq.freq[i] = intbias / netsize
		nq.bias[i] = 0
	}
}

// unbiasnet shifts the network back to byte values and records each
// neuron's slot before the sort in inxbuild.
func (nq *NeuQuant) unbiasnet() {
	for i := range nq.network {
		n := &nq.network[i]
		n[0] >>= netbiasshift
		n[1] >>= netbiasshift
		n[2] >>= netbiasshift
		n[3] = int32(i)
	}
}

// altersingle moves neuron i towards (r,g,b) by factor alpha.
func (nq *NeuQuant) altersingle(alpha int32, i int, r, g, b int32) {
	n := &nq.network[i]
	n[0] -= (alpha * (n[0] - r)) / initalpha
	n[1] -= (alpha * (n[1] - g)) / initalpha
	n[2] -= (alpha * (n[2] - b)) / initalpha
}

// alterneigh moves the neurons within rad of i towards (r,g,b), weighted by
// radpower.
func (nq *NeuQuant) alterneigh(rad, i int, r, g, b int32) {
	lo := i - rad
	if lo < -1 {
		lo = -1
	}
	hi := i + rad
	if hi > netsize {
		hi = netsize
	}

	j := i + 1
	k := i - 1
	m := 1
	for j < hi || k > lo {
		a := nq.radpower[m]
		m++
		if j < hi {
			nq.moveBy(j, a, r, g, b)
			j++
		}
		if k > lo {
			nq.moveBy(k, a, r, g, b)
			k--
		}
	}
}

func (nq *NeuQuant) moveBy(i int, a, r, g, b int32) {
	n := &nq.network[i]
	n[0] -= (a * (n[0] - r)) / alpharadbias
	n[1] -= (a * (n[1] - g)) / alpharadbias
	n[2] -= (a * (n[2] - b)) / alpharadbias
}

// contest finds the closest neuron and updates its frequency, then returns
// the best neuron once bias is accounted for.
func (nq *NeuQuant) contest(r, g, b int32) int {
	bestd := int32(^uint32(0) >> 1)
	bestbiasd := bestd
	bestpos := -1
	bestbiaspos := -1

	for i := range nq.network {
		n := &nq.network[i]
		dist := abs32(n[0]-r) + abs32(n[1]-g) + abs32(n[2]-b)
		if dist < bestd {
			bestd = dist
			bestpos = i
		}

		biasdist := dist - (nq.bias[i] >> (intbiasshift - netbiasshift))
		if biasdist < bestbiasd {
			bestbiasd = biasdist
			bestbiaspos = i
		}

		betafreq := nq.freq[i] >> betashift
		nq.freq[i] -= betafreq
		nq.bias[i] += betafreq << gammashift
	}

	nq.freq[bestpos] += beta
	nq.bias[bestpos] -= betagamma
	return bestbiaspos
}

func (nq *NeuQuant) setRadpower(alpha int32, rad int) {
	for i := 0; i < rad; i++ {
		nq.radpower[i] = alpha * ((int32(rad*rad-i*i) * radbias) / int32(rad*rad))
	}
}

// learn is the main training loop.
func (nq *NeuQuant) learn() {
	lengthcount := len(nq.pixels)
	if lengthcount < minpicturebytes {
		nq.samplefac = 1
	}

	alphadec := int32(30 + (nq.samplefac-1)/3)
	samplepixels := lengthcount / (3 * nq.samplefac)
	delta := samplepixels / ncycles
	if delta == 0 {
		delta = 1
	}

	alpha := int32(initalpha)
	radius := int32(initradius)
	rad := int(radius >> radiusbiasshift)
	if rad <= 1 {
		rad = 0
	}
	nq.setRadpower(alpha, rad)

	var step int
	switch {
	case lengthcount < minpicturebytes:
		step = 3
	case lengthcount%prime1 != 0:
		step = 3 * prime1
	case lengthcount%prime2 != 0:
		step = 3 * prime2
	case lengthcount%prime3 != 0:
		step = 3 * prime3
	default:
		step = 3 * prime4
	}

	pix := 0
	for i := 1; i <= samplepixels; i++ {
		r := int32(nq.pixels[pix]) << netbiasshift
		g := int32(nq.pixels[pix+1]) << netbiasshift
		b := int32(nq.pixels[pix+2]) << netbiasshift

		j := nq.contest(r, g, b)
		nq.altersingle(alpha, j, r, g, b)
		if rad != 0 {
			nq.alterneigh(rad, j, r, g, b)
		}

		pix += step
		if pix >= lengthcount {
			pix -= lengthcount
		}

		if i%delta == 0 {
			alpha -= alpha / alphadec
			radius -= radius / radiusdec
			rad = int(radius >> radiusbiasshift)
			if rad <= 1 {
				rad = 0
			}
			nq.setRadpower(alpha, rad)
		}
	}
}

// inxbuild sorts the network on green and fills netindex.
func (nq *NeuQuant) inxbuild() {
	previouscol := int32(0)
	startpos := 0

	for i := 0; i < netsize; i++ {
		smallpos := i
		smallval := nq.network[i][1]
		for j := i + 1; j < netsize; j++ {
			if nq.network[j][1] < smallval {
				smallpos = j
				smallval = nq.network[j][1]
			}
		}
		if i != smallpos {
			nq.network[i], nq.network[smallpos] = nq.network[smallpos], nq.network[i]
		}

		if smallval != previouscol {
			nq.netindex[previouscol] = int32((startpos + i) >> 1)
			for j := previouscol + 1; j < smallval; j++ {
				nq.netindex[j] = int32(i)
			}
			previouscol = smallval
			startpos = i
		}
	}

	nq.netindex[previouscol] = int32((startpos + maxnetpos) >> 1)
	for j := previouscol + 1; j < 256; j++ {
		nq.netindex[j] = maxnetpos
	}
}

// inxsearch walks outwards from netindex[g] in both directions and stops
// each side once the green distance alone exceeds the best match.
func (nq *NeuQuant) inxsearch(r, g, b int32) int {
	bestd := int32(1000) // biggest possible dist is 256*3
	best := -1

	i := int(nq.netindex[g])
	j := i - 1

	for i < netsize || j >= 0 {
		if i < netsize {
			n := &nq.network[i]
			dist := n[1] - g
			if dist >= bestd {
				i = netsize
			} else {
				i++
				if d := abs32(dist) + abs32(n[0]-r); d < bestd {
					if d += abs32(n[2] - b); d < bestd {
						bestd = d
						best = int(n[3])
					}
				}
			}
		}

		if j >= 0 {
			n := &nq.network[j]
			dist := g - n[1]
			if dist >= bestd {
				j = -1
			} else {
				j--
				if d := abs32(dist) + abs32(n[0]-r); d < bestd {
					if d += abs32(n[2] - b); d < bestd {
						bestd = d
						best = int(n[3])
					}
				}
			}
		}
	}

	return best
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
