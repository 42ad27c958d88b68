// Command mudra turns webcam hand gestures into mouse input.
package main

func main() {
	Execute()
}
