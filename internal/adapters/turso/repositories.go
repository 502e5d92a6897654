package turso

// Repositories holds the turso repository implementations bound to one executor.
type Repositories struct {
	Boards      *BoardRepository
	Experiments *ExperimentRepository
	Comments    *CommentRepository
}

// NewRepositories creates all turso repository implementations from a database
// connection or transaction.
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Boards:      NewBoardRepository(db),
		Experiments: NewExperimentRepository(db),
		Comments:    NewCommentRepository(db),
	}
}
