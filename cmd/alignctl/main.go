// Command alignctl exercises the aligned allocator from the command line.
package main

func main() {
	execute()
}
