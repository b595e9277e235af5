package department

type Department struct {
	Id   int
	Name string
}
