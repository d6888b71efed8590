// +build !cgo windows

package gsptcall

func setProcTitle(title string) {
}
