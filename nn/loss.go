package nn

import (
	"fmt"
	"math"

	"imgcls/tensor"
)

// CrossEntropyLoss is softmax followed by negative log-likelihood, averaged
// over the batch.
type CrossEntropyLoss struct{}

// Forward returns the mean loss of [batch, classes] logits against integer
// labels, and dL/dlogits = (softmax - onehot) / batch.
func (c *CrossEntropyLoss) Forward(logits *tensor.Tensor, labels []int) (float64, *tensor.Tensor, error) {
	if len(logits.Shape) != 2 || logits.Shape[0] != len(labels) {
		return 0, nil, fmt.Errorf("cross-entropy: logits %v vs %d labels", logits.Shape, len(labels))
	}
	batch, classes := logits.Shape[0], logits.Shape[1]
	probs := SoftmaxRows(logits)
	grad := probs.Clone()
	loss := 0.0
	for b, label := range labels {
		if label < 0 || label >= classes {
			return 0, nil, fmt.Errorf("cross-entropy: label %d out of range [0,%d)", label, classes)
		}
		p := probs.Data[b*classes+label]
		if p < 1e-12 {
			p = 1e-12
		}
		loss -= math.Log(p)
		grad.Data[b*classes+label] -= 1
	}
	inv := 1.0 / float64(batch)
	for i := range grad.Data {
		grad.Data[i] *= inv
	}
	return loss * inv, grad, nil
}

// SoftmaxRows applies softmax to each row of a [batch, classes] tensor.
func SoftmaxRows(logits *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(logits.Shape...)
	classes := logits.Shape[len(logits.Shape)-1]
	for r := 0; r+classes <= len(logits.Data); r += classes {
		softmaxInto(out.Data[r:r+classes], logits.Data[r:r+classes])
	}
	return out
}

func softmaxInto(dst, logits []float64) {
	if len(logits) == 0 {
		return
	}
	maxLogit := logits[0]
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	expSum := 0.0
	for i, v := range logits {
		e := math.Exp(v - maxLogit)
		dst[i] = e
		expSum += e
	}
	for i := range dst {
		dst[i] /= expSum
	}
}

// Accuracy returns the number of rows whose argmax equals the label.
func Accuracy(logits *tensor.Tensor, labels []int) int {
	correct := 0
	for i, pred := range tensor.Argmax(logits) {
		if i < len(labels) && pred == labels[i] {
			correct++
		}
	}
	return correct
}
